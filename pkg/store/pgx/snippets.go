// Package pgx stores embedded document snippets in PostgreSQL with
// pgvector for similarity retrieval.
package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// Snippet is one embedded document excerpt kept for chat retrieval.
type Snippet struct {
	URL     string
	Title   string
	Content string
}

// SnippetStore persists snippets and answers top-K similarity queries.
type SnippetStore struct {
	conn pgxIConn
}

// NewSnippetStore creates a SnippetStore over an existing connection
// or pool.
func NewSnippetStore(conn pgxIConn) *SnippetStore {
	return &SnippetStore{conn: conn}
}

// Upsert inserts a snippet keyed by URL, replacing content and
// embedding when the same page is ingested again.
func (s *SnippetStore) Upsert(ctx context.Context, snippet Snippet, embedding []float32) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO snippets (url, title, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    updated_at = now()`,
		snippet.URL, snippet.Title, snippet.Content, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snippet for %s: %w", snippet.URL, err)
	}
	return nil
}

// TopK returns the k snippets closest to the query embedding by cosine
// distance, most similar first.
func (s *SnippetStore) TopK(ctx context.Context, embedding []float32, k int) ([]Snippet, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT url, title, content
		FROM snippets
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var snippet Snippet
		if err := rows.Scan(&snippet.URL, &snippet.Title, &snippet.Content); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		snippets = append(snippets, snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snippets, nil
}

// Ping verifies the store is reachable.
func (s *SnippetStore) Ping(ctx context.Context) error {
	var one int
	if err := s.conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("snippet store unreachable: %w", err)
	}
	return nil
}
