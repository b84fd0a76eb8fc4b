package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/scanner"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL   = "https://oauth.reddit.com"
	redditPageSize = 100
	minTitleOnly   = 20
)

// RedditConfig holds application-only OAuth credentials.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
}

// Reddit pulls top posts of a subreddit through the OAuth API.
type Reddit struct {
	cfg     RedditConfig
	fetcher *httpfetch.Fetcher
	logger  *slog.Logger
}

var _ scanner.Provider = (*Reddit)(nil)

// NewReddit wires credentials and the shared fetcher.
func NewReddit(cfg RedditConfig, fetcher *httpfetch.Fetcher, logger *slog.Logger) *Reddit {
	if cfg.TokenURL == "" {
		cfg.TokenURL = redditTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = redditAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reddit{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Name identifies the provider inside the registry.
func (r *Reddit) Name() string { return "reddit" }

type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	Permalink   string `json:"permalink"`
	Subreddit   string `json:"subreddit"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

// CheckCredentials reports ErrMissingCredentials when the client id or secret is absent.
func (r *Reddit) CheckCredentials() error {
	if r.cfg.ClientID == "" || r.cfg.ClientSecret == "" {
		return fmt.Errorf("reddit: %w", ports.ErrMissingCredentials)
	}
	return nil
}

// Fetch yields the top posts of the year for subreddit req.Target.Name.
func (r *Reddit) Fetch(ctx context.Context, req scanner.Request) iter.Seq2[scanner.Record, error] {
	if err := r.CheckCredentials(); err != nil {
		return scanner.Failed(err)
	}
	sub := strings.TrimPrefix(strings.TrimSpace(req.Target.Name), "r/")
	if sub == "" {
		return scanner.Failed(fmt.Errorf("reddit target has no subreddit"))
	}
	limit := limitOrDefault(req.MaxResults, 50)
	period := option(req.Options, "time_filter", "year")
	source := option(req.Options, "source_type", r.Name())

	oauth := clientcredentials.Config{
		ClientID:     r.cfg.ClientID,
		ClientSecret: r.cfg.ClientSecret,
		TokenURL:     r.cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	fetcher := r.fetcher.WithClient(oauth.Client(ctx))

	return func(yield func(scanner.Record, error) bool) {
		seen := 0
		after := ""
		for seen < limit {
			q := url.Values{}
			q.Set("t", period)
			q.Set("limit", strconv.Itoa(min(redditPageSize, limit-seen)))
			if after != "" {
				q.Set("after", after)
			}
			endpoint := fmt.Sprintf("%s/r/%s/top?%s", strings.TrimSuffix(r.cfg.APIURL, "/"), url.PathEscape(sub), q.Encode())

			var page listing
			if err := fetcher.JSON(ctx, endpoint, &page); err != nil {
				yield(scanner.Record{}, fmt.Errorf("r/%s: %w", sub, err))
				return
			}
			if len(page.Data.Children) == 0 {
				return
			}

			for _, child := range page.Data.Children {
				if seen >= limit {
					return
				}
				seen++
				p := child.Data
				if p.Selftext == "" && len([]rune(p.Title)) < minTitleOnly {
					continue
				}
				if !yield(postRecord(p, sub, source), nil) {
					return
				}
			}
			if page.Data.After == "" {
				return
			}
			after = page.Data.After
		}
	}
}

func postRecord(p post, sub, source string) scanner.Record {
	subreddit := p.Subreddit
	if subreddit == "" {
		subreddit = sub
	}
	return scanner.Record{
		Kind:   domain.KindDiscussion,
		Source: source,
		Fields: map[string]any{
			"title":        p.Title,
			"content":      p.Selftext,
			"source_url":   "https://reddit.com" + p.Permalink,
			"subreddit":    subreddit,
			"upvotes":      p.Score,
			"num_comments": p.NumComments,
		},
	}
}
