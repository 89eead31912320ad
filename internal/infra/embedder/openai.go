package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/llm/openai"
)

// DefaultMaxBatchTokens stays well below the provider's per-request cap.
const DefaultMaxBatchTokens = 200_000

// EmbeddingClient is the subset of the OpenAI client used for embeddings.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings API in token-budgeted batches.
type OpenAIEmbedder struct {
	client         EmbeddingClient
	model          string
	maxBatchTokens int
	logger         *slog.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewOpenAIEmbedder constructs an embedder backed by the OpenAI client.
func NewOpenAIEmbedder(client EmbeddingClient, model string, maxBatchTokens int, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBatchTokens <= 0 {
		maxBatchTokens = DefaultMaxBatchTokens
	}
	return &OpenAIEmbedder{
		client:         client,
		model:          strings.TrimSpace(model),
		maxBatchTokens: maxBatchTokens,
		logger:         logger.With("component", "embedder.openai"),
	}
}

// Model returns the configured embedding model.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed requests embeddings for the given texts, preserving input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         = make([][]float32, 0, len(texts))
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, openai.EmbeddingRequest{Model: e.model, Input: batch})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return errCountMismatch(len(batch), len(resp.Data))
		}
		for _, item := range resp.Data {
			out = append(out, append([]float32(nil), item.Embedding...))
		}
		batch = nil
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := e.countTokens(text)
		if tokens > e.maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: tokens=%d", tokens)
		}
		if batchTokens+tokens > e.maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) countTokens(text string) int {
	e.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(e.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			e.logger.Warn("tokenizer unavailable, estimating token counts", "model", e.model, "error", err)
			return
		}
		e.enc = enc
	})
	if e.enc == nil {
		return estimateTokens(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}

var _ faq.Embedder = (*OpenAIEmbedder)(nil)

// estimateTokens provides a rough, upper-biased token count.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
