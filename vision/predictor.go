// Package vision defines the contract with the image classifier. The
// classifier itself is a black box; this package only consumes its
// species-to-confidence output.
package vision

import (
	"context"
	"sort"
)

// Prediction is one candidate species with the classifier's confidence.
type Prediction struct {
	Species    string  `json:"species"`
	Confidence float64 `json:"confidence"`
}

// Predictions maps species name to confidence in [0,1]. Confidences are
// assumed well-formed; the consumer does not validate range or sum.
type Predictions map[string]float64

// Sorted returns the predictions ordered by descending confidence. Equal
// confidences are broken by species name so the ordering is deterministic.
// The first entry is the primary prediction.
func (p Predictions) Sorted() []Prediction {
	out := make([]Prediction, 0, len(p))
	for species, conf := range p {
		out = append(out, Prediction{Species: species, Confidence: conf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Species < out[j].Species
	})
	return out
}

// Predictor produces species predictions for a mushroom photo.
type Predictor interface {
	Predict(ctx context.Context, imagePath string, topK int) (Predictions, error)
}

// StaticPredictor returns a fixed prediction set regardless of input.
// Useful for tests and local development without a classifier service.
type StaticPredictor struct {
	Result Predictions
	Err    error
}

// Predict implements the Predictor interface.
func (s *StaticPredictor) Predict(ctx context.Context, imagePath string, topK int) (Predictions, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

var _ Predictor = (*StaticPredictor)(nil)
