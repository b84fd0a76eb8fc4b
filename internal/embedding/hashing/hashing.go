// Package hashing is an offline embedder that maps tokens into a fixed number of
// buckets with a signed hash. It needs no corpus preparation and is deterministic.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"StyleTranslator/internal/ports"
)

const defaultDimension = 384

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’-]\p{L}+)*|\p{N}+`)

// Embedder hashes unigrams and adjacent bigrams into a unit-length vector.
type Embedder struct {
	dim       int
	stopwords map[string]struct{}
}

var _ ports.Embedder = (*Embedder)(nil)

// New returns an embedder with the given dimension (384 when dim <= 0).
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = defaultDimension
	}
	return &Embedder{dim: dim, stopwords: defaultStopwords()}
}

func (e *Embedder) Name() string   { return "hashing" }
func (e *Embedder) Dimension() int { return e.dim }

// Embed never returns a zero vector: text without tokens maps to a fixed bucket.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dim)
	tokens := e.tokenize(text)
	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	if len(tokens) == 0 {
		vec[0] = 1
	}
	return normalize(vec), nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalize(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	if norm == 0 {
		out[0] = 1
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "it", "this", "that", "from", "so",
		"into", "about", "than", "too", "very", "can", "will", "just", "my", "i", "you",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
