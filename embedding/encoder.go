// Package embedding provides text embedding encoders and the fixed document
// embedding matrix used for similarity search.
package embedding

import (
	"context"
	"math"
)

// Encoder produces a fixed-length vector for a piece of text. Encoding must
// be deterministic for a given model.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
}

// Cosine returns the cosine similarity between a and b, in [-1, 1].
// A zero-norm input yields 0 rather than NaN, so degenerate vectors are
// never considered similar to anything.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
