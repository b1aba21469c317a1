//go:build adapters_pgvector

// Package pgvector provides a Postgres-backed retriever for knowledge bases
// too large to hold in memory. Scoring and filtering rules are identical to
// the in-memory index: cosine similarity, non-positive scores discarded,
// results ordered descending.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/Bartekp26/Mushroom-AI-Identifier/embedding"
	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
)

// Store retrieves knowledge documents from a pgvector table.
//
// Expect table schema similar to:
// CREATE EXTENSION IF NOT EXISTS vector;
// CREATE TABLE IF NOT EXISTS knowledge_documents (
//   doc_index integer PRIMARY KEY,
//   content text NOT NULL,
//   embedding vector(1536)
// );
type Store struct {
	conn    *pgx.Conn
	table   string
	encoder embedding.Encoder
}

// New creates a store over the given table. The doc_index column must match
// the canonical knowledge base ordering; follow-up deduplication relies on
// it.
func New(conn *pgx.Conn, table string, encoder embedding.Encoder) (*Store, error) {
	if encoder == nil {
		return nil, errors.New("encoder is required")
	}
	if table == "" {
		table = "knowledge_documents"
	}
	return &Store{conn: conn, table: table, encoder: encoder}, nil
}

// AddDocument upserts one knowledge document at the given index.
func (s *Store) AddDocument(ctx context.Context, index int, content string, vec []float64) error {
	if len(vec) == 0 {
		return errors.New("empty embedding")
	}
	_, err := s.conn.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (doc_index, content, embedding) VALUES ($1,$2,$3) ON CONFLICT (doc_index) DO UPDATE SET content=excluded.content, embedding=excluded.embedding", s.table),
		index, content, toVector(vec))
	return err
}

// Retrieve implements rag.Retriever.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]rag.Result, error) {
	if topK <= 0 {
		topK = 3
	}
	qvec, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	// <=> is cosine distance; similarity = 1 - distance. Ordering by
	// distance ascending with doc_index as secondary key gives descending
	// similarity with ties broken by document order.
	rows, err := s.conn.Query(ctx,
		fmt.Sprintf("SELECT doc_index, content, 1 - (embedding <=> $1) AS similarity FROM %s ORDER BY embedding <=> $1 ASC, doc_index ASC LIMIT $2", s.table),
		toVector(qvec), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rag.Result, 0, topK)
	for rows.Next() {
		var r rag.Result
		if err := rows.Scan(&r.Index, &r.Document, &r.Similarity); err != nil {
			return nil, err
		}
		if r.Similarity <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func toVector(vec []float64) pgv.Vector {
	v32 := make([]float32, len(vec))
	for i, f := range vec {
		v32[i] = float32(f)
	}
	return pgv.NewVector(v32)
}

var _ rag.Retriever = (*Store)(nil)
