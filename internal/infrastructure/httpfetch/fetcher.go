// Package httpfetch is the throttled HTTP client shared by scraping providers.
package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// Options configure throttling and retries.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	PoliteDelay       time.Duration
	MaxRetries        int
}

// StatusError is returned for non-retryable or exhausted HTTP failures.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Fetcher issues GET requests through a rate limiter with a polite delay between calls.
type Fetcher struct {
	client *http.Client
	pace   *pacer
	opts   Options
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

type pacer struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
}

// New builds a fetcher. A nil client gets a default one with opts.Timeout.
func New(opts Options, client *http.Client, logger *slog.Logger) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "StyleTranslator/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 10
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		pace:   &pacer{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)},
		opts:   opts,
		logger: logger,
		sleep:  sleepContext,
	}
}

// WithClient returns a fetcher that sends through client but shares this fetcher's throttle.
func (f *Fetcher) WithClient(client *http.Client) *Fetcher {
	clone := *f
	clone.client = client
	return &clone
}

// Get returns the response body of a successful GET.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retry request", "url", url, "attempt", attempt, "error", lastErr)
		}
		body, retryAfter, err := f.do(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if retryAfter < 0 || ctx.Err() != nil {
			return nil, err
		}
		if attempt == f.opts.MaxRetries {
			break
		}
		wait := retryDelay(attempt)
		if retryAfter > 0 {
			wait = retryAfter
		}
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", f.opts.MaxRetries+1, lastErr)
}

// Document fetches and parses an HTML page.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// JSON fetches url and decodes the body into v.
func (f *Fetcher) JSON(ctx context.Context, url string, v any) error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	body, err := f.Get(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// do performs one throttled attempt. retryAfter < 0 marks a non-retryable failure.
func (f *Fetcher) do(ctx context.Context, url string, header http.Header) ([]byte, time.Duration, error) {
	if err := f.throttle(ctx); err != nil {
		return nil, -1, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, -1, fmt.Errorf("build request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &StatusError{URL: url, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, -1, &StatusError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, 0, nil
}

func (f *Fetcher) throttle(ctx context.Context) error {
	if err := f.pace.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if f.opts.PoliteDelay <= 0 {
		return nil
	}

	f.pace.mu.Lock()
	var wait time.Duration
	if !f.pace.last.IsZero() {
		wait = f.opts.PoliteDelay - time.Since(f.pace.last)
	}
	f.pace.mu.Unlock()
	if wait > 0 {
		if err := f.sleep(ctx, wait); err != nil {
			return err
		}
	}

	f.pace.mu.Lock()
	f.pace.last = time.Now()
	f.pace.mu.Unlock()
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
