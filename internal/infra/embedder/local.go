package embedder

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// LocalEmbedder hashes words and character trigrams into a fixed-width, L2-normalized vector.
// It needs no network and gives related phrasings overlapping features, which makes it usable
// for development and the offline CLI.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder constructs the embedder. Non-positive dims default to 256.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &LocalEmbedder{dim: dim}
}

// Embed converts each text into its hashed feature vector.
func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, word := range strings.Fields(faq.Normalize(text)) {
		e.add(vec, "w:"+word, 1)
		padded := []rune(" " + word + " ")
		for j := 0; j+3 <= len(padded); j++ {
			e.add(vec, "t:"+string(padded[j:j+3]), 0.5)
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for j := range vec {
		vec[j] *= scale
	}
	return vec
}

func (e *LocalEmbedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	slot := int(h % uint64(e.dim))
	if h&(1<<63) != 0 {
		weight = -weight
	}
	vec[slot] += weight
}

var _ faq.Embedder = (*LocalEmbedder)(nil)
