package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var priceExpr = regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d{1,2})?)`)

// MentionExtractor finds brand and style mentions in free text.
type MentionExtractor interface {
	Brands(text string) []string
	StyleDescriptors(text string) []string
	ItemTypes(text string) []string
}

// buildPageURL sets a numeric page query parameter on base.
func buildPageURL(base, param string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}
	if page <= 1 {
		return parsed.String(), nil
	}
	query := parsed.Query()
	query.Set(param, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

func selText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(sel.Find(selector).First().Text()), " ")
}

// parsePrice returns the first dollar amount in text, 0 when absent.
func parsePrice(text string) float64 {
	m := priceExpr.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func option(opts map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(opts[key]); v != "" {
		return v
	}
	return fallback
}

func intOption(opts map[string]string, key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(opts[key])); err == nil && v > 0 {
		return v
	}
	return fallback
}

func limitOrDefault(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
