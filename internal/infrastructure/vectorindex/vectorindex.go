// Package vectorindex holds helpers shared by the vector index backends.
// Every backend reports squared Euclidean distance between unit vectors.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrLengthMismatch = errors.New("ids, vectors and metadata differ in length")
	ErrEmptyVector    = errors.New("empty vector")
)

// CheckBatch validates an upsert batch.
func CheckBatch(ids []string, vectors [][]float32, metadata []map[string]string) error {
	if len(ids) != len(vectors) || (metadata != nil && len(metadata) != len(ids)) {
		return fmt.Errorf("%w: %d ids, %d vectors, %d metadata", ErrLengthMismatch, len(ids), len(vectors), len(metadata))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %q: %w", ids[i], ErrEmptyVector)
		}
	}
	return nil
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// DistanceFromCosine converts cosine similarity of unit vectors to squared L2.
func DistanceFromCosine(cos float64) float64 {
	d := 2 - 2*cos
	if d < 0 {
		return 0
	}
	return d
}

// SquaredL2 is the squared Euclidean distance between a and b.
func SquaredL2(a, b []float32) float64 {
	n := min(len(a), len(b))
	var d float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		d += diff * diff
	}
	for i := n; i < len(a); i++ {
		d += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		d += float64(b[i]) * float64(b[i])
	}
	return d
}

// Matches reports whether meta carries every key/value pair of filter.
func Matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

// CopyMetadata returns a shallow copy so callers cannot mutate stored maps.
func CopyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
