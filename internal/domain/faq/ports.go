package faq

import "context"

// Embedder turns text into fixed-dimension vectors. Output order follows input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Stemmer reduces a token to its root form.
type Stemmer interface {
	Stem(token string) string
}

// Source loads the curated dataset for an audience.
type Source interface {
	Load(ctx context.Context, audience Audience) ([]Entry, error)
}

// Store keeps trending counters for matched intents.
type Store interface {
	IncrementTag(ctx context.Context, audience Audience, tag string) error
	TopTags(ctx context.Context, audience Audience, limit int) ([]TrendingQuery, error)
}

// Picker returns an index in [0, n). It decides which canned response is drawn.
type Picker func(n int) int
