package faqstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PostgresEmbeddingCache persists embeddings in a pgvector column:
//
//	CREATE TABLE faq_embeddings (
//	    cache_key  TEXT PRIMARY KEY,
//	    embedding  VECTOR NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresEmbeddingCache struct {
	pool *pgxpool.Pool
}

// NewPostgresEmbeddingCache constructs the cache.
func NewPostgresEmbeddingCache(pool *pgxpool.Pool) *PostgresEmbeddingCache {
	return &PostgresEmbeddingCache{pool: pool}
}

func (c *PostgresEmbeddingCache) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := c.pool.Query(ctx, `
		SELECT cache_key, embedding
		FROM faq_embeddings
		WHERE cache_key = ANY($1)
	`, keys)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float32, len(keys))
	for rows.Next() {
		var (
			key string
			vec pgvector.Vector
		)
		if err := rows.Scan(&key, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		out[key] = vec.Slice()
	}
	return out, rows.Err()
}

func (c *PostgresEmbeddingCache) SetMany(ctx context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for key, vec := range vectors {
		batch.Queue(`
			INSERT INTO faq_embeddings (cache_key, embedding)
			VALUES ($1, $2)
			ON CONFLICT (cache_key) DO UPDATE SET embedding = EXCLUDED.embedding
		`, key, pgvector.NewVector(vec))
	}
	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range vectors {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("store embedding: %w", err)
		}
	}
	return nil
}
