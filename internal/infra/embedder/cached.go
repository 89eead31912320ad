package embedder

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// Cache stores embeddings by key. Missing keys are simply absent from GetMany's result.
type Cache interface {
	GetMany(ctx context.Context, keys []string) (map[string][]float32, error)
	SetMany(ctx context.Context, vectors map[string][]float32) error
}

// Cached serves repeated texts from a cache so batch and per-item embedding agree.
// Cache failures degrade to calling the wrapped embedder.
type Cached struct {
	next   faq.Embedder
	cache  Cache
	model  string
	logger *slog.Logger
}

// NewCached wraps next with the cache. model namespaces the keys.
func NewCached(next faq.Embedder, cache Cache, model string, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		next:   next,
		cache:  cache,
		model:  model,
		logger: logger.With("component", "embedder.cached"),
	}
}

// Key derives the cache key for a text under the model.
func Key(model, text string) string {
	digest := xxhash.New()
	_, _ = digest.WriteString(model)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(text)
	return "emb:" + strconv.FormatUint(digest.Sum64(), 16)
}

// Embed returns cached vectors and embeds only the misses, in one batch.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = Key(c.model, text)
	}

	hits, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
		hits = nil
	}

	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missSlots []int
	)
	seen := make(map[string]int)
	for i, key := range keys {
		if vec, ok := hits[key]; ok {
			out[i] = vec
			continue
		}
		if _, dup := seen[key]; !dup {
			seen[key] = len(missTexts)
			missTexts = append(missTexts, texts[i])
		}
		missSlots = append(missSlots, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, &PermanentError{Err: errCountMismatch(len(missTexts), len(vectors))}
	}
	fresh := make(map[string][]float32, len(missTexts))
	for _, slot := range missSlots {
		vec := vectors[seen[keys[slot]]]
		out[slot] = vec
		fresh[keys[slot]] = vec
	}
	if err := c.cache.SetMany(ctx, fresh); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return out, nil
}

var _ faq.Embedder = (*Cached)(nil)
