// Package extract derives style attributes from free text using keyword tables.
// Every provider and the normalizer share it so the heuristics live in one place.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Attributes are the item attributes recoverable from a title or description.
type Attributes struct {
	Fit       string
	Colors    []string
	Materials []string
	StyleTags []string
}

// Keywords is the default table-driven extractor.
type Keywords struct {
	brands []string
}

// New returns an extractor using the built-in brand list plus any extra names.
func New(extraBrands ...string) *Keywords {
	brands := make([]string, 0, len(knownBrands)+len(extraBrands))
	brands = append(brands, knownBrands...)
	for _, b := range extraBrands {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	return &Keywords{brands: brands}
}

// Attributes extracts fit, colors, materials and style tags from text.
func (k *Keywords) Attributes(text string) Attributes {
	lower := strings.ToLower(text)
	attrs := Attributes{
		Colors:    matchWords(lower, colorWords),
		Materials: matchWords(lower, materialWords),
		StyleTags: matchRules(lower, styleTagRules),
	}
	for _, r := range fitRules {
		if containsAny(lower, r.keywords) {
			attrs.Fit = r.label
			break
		}
	}
	return attrs
}

// Category infers a garment category, "other" when nothing matches.
func (k *Keywords) Category(text string) string {
	lower := strings.ToLower(text)
	for _, r := range categoryRules {
		if containsAny(lower, r.keywords) {
			return r.label
		}
	}
	return "other"
}

// Brands returns known brand names mentioned in text, in table order.
func (k *Keywords) Brands(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	seen := map[string]struct{}{}
	for _, b := range k.brands {
		if _, dup := seen[b]; dup {
			continue
		}
		if containsWholeWord(lower, strings.ToLower(b)) {
			seen[b] = struct{}{}
			found = append(found, b)
		}
	}
	return found
}

// StyleDescriptors returns aesthetic labels matched by the descriptor table.
func (k *Keywords) StyleDescriptors(text string) []string {
	return matchRules(strings.ToLower(text), descriptorRules)
}

// ItemTypes returns garment keywords mentioned in text.
func (k *Keywords) ItemTypes(text string) []string {
	return matchWords(strings.ToLower(text), itemKeywords)
}

func matchWords(lower string, words []string) []string {
	out := []string{}
	for _, w := range words {
		if containsWord(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

func matchRules(lower string, rules []rule) []string {
	out := []string{}
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			out = append(out, r.label)
		}
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord reports whether needle occurs in s starting on a word boundary.
// Suffixes are allowed so plurals ("jackets") still match.
func containsWord(s, needle string) bool {
	return indexWord(s, needle, false)
}

// containsWholeWord also requires a boundary after the match ("cos" does not match "cost").
func containsWholeWord(s, needle string) bool {
	return indexWord(s, needle, true)
}

func indexWord(s, needle string, whole bool) bool {
	if needle == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(needle); {
		idx := strings.Index(s[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)
		before := start == 0 || !isWordRune(lastRune(s[:start]))
		after := !whole || end == len(s) || !isWordRune(firstRune(s[end:]))
		if before && after {
			return true
		}
		offset = start + 1
	}
	return false
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
