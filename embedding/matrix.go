package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Matrix holds one embedding vector per knowledge base document, in document
// order. It is read-only after construction and safe to share.
type Matrix [][]float64

// Build encodes every document and returns the resulting matrix. Used when
// no precomputed matrix is available on disk.
func Build(ctx context.Context, enc Encoder, docs []string) (Matrix, error) {
	m := make(Matrix, 0, len(docs))
	for i, doc := range docs {
		vec, err := enc.Encode(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("encode document %d: %w", i, err)
		}
		m = append(m, vec)
	}
	return m, nil
}

// LoadMatrix reads a precomputed matrix from a JSON file.
func LoadMatrix(path string) (Matrix, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings file: %w", err)
	}
	var m Matrix
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode embeddings file: %w", err)
	}
	return m, nil
}

// SaveMatrix writes the matrix to a JSON file.
func SaveMatrix(path string, m Matrix) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode embeddings: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write embeddings file: %w", err)
	}
	return nil
}
