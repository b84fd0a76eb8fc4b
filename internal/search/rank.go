package search

import (
	"sort"

	"StyleTranslator/internal/ports"
)

// Similarity maps a non-negative distance into (0, 1]; only d == 0 yields 1.
func Similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// Match is a ranked hit with its raw metadata.
type Match struct {
	ID         string
	Metadata   map[string]string
	Distance   float64
	Similarity float64
}

// Rank scores hits and orders them by non-increasing similarity, ties by id.
func Rank(hits []ports.Hit) []Match {
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		out = append(out, Match{
			ID:         h.ID,
			Metadata:   h.Metadata,
			Distance:   h.Distance,
			Similarity: Similarity(h.Distance),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
