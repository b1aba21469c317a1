// Package rag implements semantic retrieval over the embedded knowledge
// base: encode the query, score every document by cosine similarity and
// return the best matches.
package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/Bartekp26/Mushroom-AI-Identifier/embedding"
	obs "github.com/Bartekp26/Mushroom-AI-Identifier/observability"
)

// Result is one retrieved document with its similarity score and its
// position in the knowledge base. Index identifies the document across
// turns; deduplication keys off it.
type Result struct {
	Document   string  `json:"document"`
	Similarity float64 `json:"similarity"`
	Index      int     `json:"index"`
}

// Retriever answers nearest-neighbor queries against the knowledge base.
type Retriever interface {
	// Retrieve returns at most topK documents ordered by descending
	// similarity. Documents with similarity <= 0 are discarded, so fewer
	// than topK results may come back.
	Retrieve(ctx context.Context, query string, topK int) ([]Result, error)
}

// Index is the in-memory retriever: a fixed document list plus one
// precomputed embedding per document. Read-only after construction and safe
// to share across agents.
type Index struct {
	docs    []string
	matrix  embedding.Matrix
	encoder embedding.Encoder
}

// NewIndex builds an index over docs with their embedding matrix. The
// matrix must have exactly one row per document; a mismatch means the
// embeddings were computed against a different knowledge base and is fatal.
func NewIndex(docs []string, matrix embedding.Matrix, encoder embedding.Encoder) (*Index, error) {
	if encoder == nil {
		return nil, fmt.Errorf("encoder is required")
	}
	if len(matrix) != len(docs) {
		return nil, fmt.Errorf("embedding matrix has %d rows for %d documents", len(matrix), len(docs))
	}
	return &Index{docs: docs, matrix: matrix, encoder: encoder}, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Document returns the document text at position i.
func (ix *Index) Document(i int) string { return ix.docs[i] }

// Retrieve implements the Retriever interface.
func (ix *Index) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	span, ctx := obs.TracerImpl.StartSpan(ctx, "rag.retrieve")
	defer span.End()
	span.SetAttribute(obs.AttrRetrievalTopK, topK)

	if topK <= 0 {
		topK = 3
	}

	qvec, err := ix.encoder.Encode(ctx, query)
	if err != nil {
		span.SetStatus(obs.StatusCodeError, err.Error())
		return nil, fmt.Errorf("encode query: %w", err)
	}

	sims := make([]float64, len(ix.matrix))
	for i, dvec := range ix.matrix {
		sims[i] = embedding.Cosine(qvec, dvec)
	}

	// Stable sort on similarity only: ties keep original document order.
	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}

	results := make([]Result, 0, topK)
	for _, idx := range order[:topK] {
		if sims[idx] <= 0 {
			// Irrelevant matches must not pollute context even when they
			// made the top-K slice.
			continue
		}
		results = append(results, Result{
			Document:   ix.docs[idx],
			Similarity: sims[idx],
			Index:      idx,
		})
	}

	span.SetAttribute(obs.AttrRetrievalHits, len(results))
	return results, nil
}

var _ Retriever = (*Index)(nil)
