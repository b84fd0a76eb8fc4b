package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/scanner"
)

const (
	threadSelector      = ".structItem--thread, .discussionListItem"
	threadTitleSelector = ".structItem-title a, .title a"
	threadReplySelector = ".structItem-cell--meta dd, .stats .major"
	postSelector        = ".message-body, .messageContent, .bbWrapper"

	minPostLength     = 50
	maxPostsPerThread = 10
)

type threadRef struct {
	title   string
	url     string
	replies int
}

// Forum reads thread listings and turns each relevant thread into a discussion.
type Forum struct {
	fetcher   *httpfetch.Fetcher
	extractor MentionExtractor
	logger    *slog.Logger
}

var _ scanner.Provider = (*Forum)(nil)

// NewForum wires the shared fetcher and the mention extractor.
func NewForum(fetcher *httpfetch.Fetcher, extractor MentionExtractor, logger *slog.Logger) *Forum {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forum{fetcher: fetcher, extractor: extractor, logger: logger}
}

// Name identifies the provider inside the registry.
func (f *Forum) Name() string { return "forum" }

// Fetch yields up to MaxResults discussions from the forum section at req.Target.URL.
// Threads mentioning neither a brand nor a style descriptor are skipped.
func (f *Forum) Fetch(ctx context.Context, req scanner.Request) iter.Seq2[scanner.Record, error] {
	if req.Target.URL == "" {
		return scanner.Failed(fmt.Errorf("forum target %q has no url", req.Target.Name))
	}
	limit := limitOrDefault(req.MaxResults, 30)
	maxPages := intOption(req.Options, "max_pages", 5)
	source := option(req.Options, "source_type", f.Name())
	tag := option(req.Options, "forum_tag", "forum") + "/" + req.Target.Name

	return func(yield func(scanner.Record, error) bool) {
		visited := 0
		for page := 1; page <= maxPages && visited < limit; page++ {
			listURL := strings.TrimSuffix(req.Target.URL, "/") + "/"
			if page > 1 {
				listURL += "page-" + strconv.Itoa(page)
			}
			doc, err := f.fetcher.Document(ctx, listURL)
			if err != nil {
				yield(scanner.Record{}, fmt.Errorf("thread list page %d: %w", page, err))
				return
			}
			threads := parseThreadList(doc, listURL)
			if len(threads) == 0 {
				return
			}

			for _, thread := range threads {
				if visited >= limit {
					return
				}
				visited++
				rec, ok := f.readThread(ctx, thread, source, tag)
				if !ok {
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func parseThreadList(doc *goquery.Document, listURL string) []threadRef {
	var refs []threadRef
	doc.Find(threadSelector).Each(func(_ int, s *goquery.Selection) {
		link := s.Find(threadTitleSelector).First()
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if title == "" || !ok {
			return
		}
		replies, _ := strconv.Atoi(strings.ReplaceAll(selText(s, threadReplySelector), ",", ""))
		refs = append(refs, threadRef{title: title, url: absoluteURL(listURL, href), replies: replies})
	})
	return refs
}

func (f *Forum) readThread(ctx context.Context, thread threadRef, source, tag string) (scanner.Record, bool) {
	doc, err := f.fetcher.Document(ctx, thread.url)
	if err != nil {
		f.logger.Warn("skip thread", "url", thread.url, "error", err)
		return scanner.Record{}, false
	}

	var posts []string
	doc.Find(postSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len(text) > minPostLength {
			posts = append(posts, text)
		}
		return len(posts) < maxPostsPerThread
	})
	content := strings.Join(posts, "\n\n")

	brands := f.extractor.Brands(content)
	descriptors := f.extractor.StyleDescriptors(content)
	if len(brands) == 0 && len(descriptors) == 0 {
		f.logger.Debug("skip thread", "url", thread.url, "reason", "no style mentions")
		return scanner.Record{}, false
	}

	return scanner.Record{
		Kind:   domain.KindDiscussion,
		Source: source,
		Fields: map[string]any{
			"title":             thread.title,
			"content":           content,
			"mentioned_brands":  brands,
			"mentioned_items":   f.extractor.ItemTypes(content),
			"style_descriptors": descriptors,
			"source_url":        thread.url,
			"subreddit":         tag,
			"num_comments":      thread.replies,
		},
	}, true
}
