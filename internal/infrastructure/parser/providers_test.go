package parser

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StyleTranslator/internal/config"
	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/extract"
	"StyleTranslator/internal/infrastructure/httpfetch"
	"StyleTranslator/internal/ports"
	"StyleTranslator/internal/scanner"
)

func testFetcher() *httpfetch.Fetcher {
	return httpfetch.New(httpfetch.Options{RequestsPerMinute: 60000}, nil, nil)
}

func collect(t *testing.T, seq iter.Seq2[scanner.Record, error]) ([]scanner.Record, error) {
	t.Helper()
	var out []scanner.Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://shop.example.com/clothing/jackets?sort=new", "p", 3)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", parsed.Host)
	assert.Equal(t, "3", parsed.Query().Get("p"))
	assert.Equal(t, "new", parsed.Query().Get("sort"))

	first, err := buildPageURL("https://shop.example.com/x", "p", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/x", first)
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1250.0, parsePrice("$1,250.00"), 1e-9)
	assert.InDelta(t, 45.5, parsePrice("$45.50 to $60.00"), 1e-9)
	assert.Zero(t, parsePrice("Sold out"))
}

func TestStorefrontPaginatesUntilEmptyPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("p") {
		case "":
			fmt.Fprint(w, `<div class="product-card"><span class="brand">Orslow</span><h3>Fatigue Pants</h3><span class="price">$180</span><a href="/p/1">x</a></div>
			<div class="product-card"><span class="brand">Orslow</span><h3></h3></div>`)
		case "2":
			fmt.Fprint(w, `<div class="product-card"><span class="brand">Kapital</span><h3>Ring Coat</h3><span class="price">$1,200.00</span></div>`)
		default:
			fmt.Fprint(w, `<html></html>`)
		}
	}))
	defer srv.Close()

	sf := NewStorefront(testFetcher(), nil)
	recs, err := collect(t, sf.Fetch(context.Background(), scanner.Request{
		Target:  scanner.Target{Name: "all", URL: srv.URL + "/clothing"},
		Options: map[string]string{"source_type": "end_clothing"},
	}))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, domain.KindItem, recs[0].Kind)
	assert.Equal(t, "end_clothing", recs[0].Source)
	assert.Equal(t, "Fatigue Pants", recs[0].Fields["name"])
	assert.Equal(t, 180.0, recs[0].Fields["price_usd"])
	assert.Equal(t, srv.URL+"/p/1", recs[0].Fields["source_url"])
	assert.Equal(t, "Kapital", recs[1].Fields["brand"])
}

func TestStorefrontHonorsMaxResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat(`<div class="product-card"><span class="brand">A</span><h3>Tee</h3></div>`, 5))
	}))
	defer srv.Close()

	recs, err := collect(t, NewStorefront(testFetcher(), nil).Fetch(context.Background(), scanner.Request{
		Target:     scanner.Target{Name: "tees", URL: srv.URL},
		MaxResults: 3,
	}))
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestStorefrontYieldsPartialResultsBeforeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("p") == "2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `<div class="product-card"><span class="brand">A</span><h3>Tee</h3></div>`)
	}))
	defer srv.Close()

	recs, err := collect(t, NewStorefront(testFetcher(), nil).Fetch(context.Background(), scanner.Request{
		Target: scanner.Target{Name: "tees", URL: srv.URL},
	}))
	assert.Error(t, err)
	assert.Len(t, recs, 1)
}

func TestMarketplaceFiltersByBrandAndStopsAtLimit(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("_nkw"))
		mu.Unlock()
		fmt.Fprint(w, `
		<li class="s-item"><div class="s-item__title">Shop on eBay</div></li>
		<li class="s-item"><a href="https://m.example/1"><div class="s-item__title">Acme Slim Navy Chore Jacket</div></a><span class="s-item__price">$120.00</span></li>
		<li class="s-item"><div class="s-item__title">Other Brand Jeans</div></li>
		<li class="s-item"><div class="s-item__title">ACME Wool Sweater</div><span class="s-item__price">$80.00 to $95.00</span></li>
		<li class="s-item"><div class="s-item__title">Acme Tee</div></li>`)
	}))
	defer srv.Close()

	m := NewMarketplace(testFetcher(), srv.URL+"/sch?_nkw={query}", nil)
	recs, err := collect(t, m.Fetch(context.Background(), scanner.Request{Query: "Acme Co", MaxResults: 2}))
	require.NoError(t, err)

	assert.Empty(t, recs)
	mu.Lock()
	assert.Equal(t, []string{"Acme Co"}, queries)
	mu.Unlock()

	recs, err = collect(t, m.Fetch(context.Background(), scanner.Request{Query: "Acme", MaxResults: 2}))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme Slim Navy Chore Jacket", recs[0].Fields["name"])
	assert.Equal(t, "Acme", recs[0].Fields["brand"])
	assert.Equal(t, 120.0, recs[0].Fields["price_usd"])
	assert.Equal(t, "https://m.example/1", recs[0].Fields["source_url"])
	assert.Equal(t, 80.0, recs[1].Fields["price_usd"])
}

func TestForumSkipsThreadsWithoutMentions(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("really thoughtful words ", 5)
	mux := http.NewServeMux()
	mux.HandleFunc("/forums/denim/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `
		<div class="structItem--thread"><div class="structItem-title"><a href="/threads/1">Orslow fit pics</a></div><dl class="structItem-cell--meta"><dd>1,204</dd></dl></div>
		<div class="structItem--thread"><div class="structItem-title"><a href="/threads/2">Off topic</a></div></div>`)
	})
	mux.HandleFunc("/forums/denim/page-2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/threads/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<div class="message-body">My Orslow 105 jeans are raw denim and fade beautifully, %s</div><div class="message-body">short</div>`, long)
	})
	mux.HandleFunc("/threads/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<div class="message-body">Anyone watching the game tonight? %s</div>`, long)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewForum(testFetcher(), extract.New(), nil)
	recs, err := collect(t, f.Fetch(context.Background(), scanner.Request{
		Target:  scanner.Target{Name: "denim", URL: srv.URL + "/forums/denim"},
		Options: map[string]string{"forum_tag": "StyleForum", "source_type": "styleforum"},
	}))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, domain.KindDiscussion, rec.Kind)
	assert.Equal(t, "styleforum", rec.Source)
	assert.Equal(t, "Orslow fit pics", rec.Fields["title"])
	assert.Equal(t, []string{"Orslow"}, rec.Fields["mentioned_brands"])
	assert.Contains(t, rec.Fields["style_descriptors"], "raw denim")
	assert.Equal(t, "StyleForum/denim", rec.Fields["subreddit"])
	assert.Equal(t, 1204, rec.Fields["num_comments"])
	assert.NotContains(t, rec.Fields, "upvotes", "forums carry no vote signal")
	assert.NotContains(t, rec.Fields["content"], "short")
}

func TestRedditRequiresCredentials(t *testing.T) {
	t.Parallel()

	r := NewReddit(RedditConfig{}, testFetcher(), nil)
	_, err := collect(t, r.Fetch(context.Background(), scanner.Request{Target: scanner.Target{Name: "rawdenim"}}))
	assert.ErrorIs(t, err, ports.ErrMissingCredentials)
}

func TestRedditTopPosts(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", id)
		assert.Equal(t, "secret", secret)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/r/rawdenim/top", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "year", r.URL.Query().Get("t"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"after":"","children":[
			{"data":{"title":"Short","selftext":"","permalink":"/r/rawdenim/1"}},
			{"data":{"title":"Momotaro vs Pure Blue Japan","selftext":"Which selvedge fades better?","permalink":"/r/rawdenim/2","subreddit":"rawdenim","score":321,"num_comments":45}}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewReddit(RedditConfig{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL + "/token", APIURL: srv.URL}, testFetcher(), nil)
	recs, err := collect(t, r.Fetch(context.Background(), scanner.Request{Target: scanner.Target{Name: "rawdenim"}, MaxResults: 10}))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "Momotaro vs Pure Blue Japan", recs[0].Fields["title"])
	assert.Equal(t, "https://reddit.com/r/rawdenim/2", recs[0].Fields["source_url"])
	assert.Equal(t, 321, recs[0].Fields["upvotes"])
	assert.Equal(t, "reddit", recs[0].Source)
}

func TestCatalogYieldsBrandsThenItems(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
brands:
  - name: Orslow
    price_range: premium
    aesthetics: [workwear, military]
    items:
      - name: Fatigue Pants
        category: pants
        price_usd: 180
      - name: 105 Jeans
        category: jeans
items:
  - name: Loose Tee
    brand: Acme
discussions:
  - title: Best fatigue pants?
    content: Orslow or Engineered Garments
`), 0o644))

	recs, err := collect(t, NewCatalog(nil).Fetch(context.Background(), scanner.Request{
		Target:     scanner.Target{Name: "seed", URL: path},
		MaxResults: 2,
	}))
	require.NoError(t, err)

	kinds := make([]domain.Kind, 0, len(recs))
	for _, r := range recs {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []domain.Kind{domain.KindBrand, domain.KindItem, domain.KindItem, domain.KindDiscussion}, kinds)
	assert.Equal(t, "Orslow", recs[1].Fields["brand"])
	assert.Equal(t, "Orslow", recs[0].Fields["name"])
	assert.NotContains(t, recs[0].Fields, "items")
	assert.Equal(t, "catalog", recs[0].Source)
}

func TestCatalogMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := collect(t, NewCatalog(nil).Fetch(context.Background(), scanner.Request{
		Target: scanner.Target{Name: "seed", URL: filepath.Join(t.TempDir(), "none.yaml")},
	}))
	assert.Error(t, err)
}

func TestBuildStagesExpandsTargets(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry()
	reg.Register(NewCatalog(nil))
	reg.Register(NewReddit(RedditConfig{}, testFetcher(), nil))

	stages, err := BuildStages(reg, []config.SourceConfig{
		{Name: "seeds", Provider: "catalog", Targets: []config.TargetConfig{{Name: "a", URL: "a.yaml"}, {Name: "b", URL: "b.yaml"}}},
		{Name: "reddit", Provider: "reddit", MaxResults: 5, Required: true},
	}, nil)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "seeds/a", stages[0].Name)
	assert.Equal(t, "seeds/b", stages[1].Name)
	assert.Equal(t, "reddit/reddit", stages[2].Name)
	assert.True(t, stages[2].Required)
	assert.Equal(t, 5, stages[2].Request.MaxResults)

	_, err = BuildStages(reg, []config.SourceConfig{{Name: "x", Provider: "nope"}}, nil)
	assert.Error(t, err)
}
