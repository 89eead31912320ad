package faqsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// PostgresSource reads curated entries from:
//
//	CREATE TABLE faq_entries (
//	    audience  TEXT NOT NULL,
//	    tag       TEXT NOT NULL,
//	    patterns  TEXT[] NOT NULL,
//	    responses TEXT[] NOT NULL,
//	    position  INT NOT NULL,
//	    PRIMARY KEY (audience, tag)
//	);
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource constructs the source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Load(ctx context.Context, audience faq.Audience) ([]faq.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tag, patterns, responses
		FROM faq_entries
		WHERE audience = $1
		ORDER BY position, tag
	`, string(audience))
	if err != nil {
		return nil, fmt.Errorf("query faq entries: %w", err)
	}
	defer rows.Close()

	var entries []faq.Entry
	for rows.Next() {
		var entry faq.Entry
		if err := rows.Scan(&entry.Tag, &entry.Patterns, &entry.Responses); err != nil {
			return nil, fmt.Errorf("scan faq entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ faq.Source = (*PostgresSource)(nil)
