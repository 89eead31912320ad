package faqsource

import (
	"context"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// PayloadFetcher returns a raw {"FAQ": [...]} document. backend.Client implements it.
type PayloadFetcher interface {
	FetchFAQ(ctx context.Context, audience faq.Audience) ([]byte, error)
}

// BackendSource loads datasets from the FYEO backend.
type BackendSource struct {
	fetcher PayloadFetcher
}

// NewBackendSource constructs the source.
func NewBackendSource(fetcher PayloadFetcher) *BackendSource {
	return &BackendSource{fetcher: fetcher}
}

func (s *BackendSource) Load(ctx context.Context, audience faq.Audience) ([]faq.Entry, error) {
	raw, err := s.fetcher.FetchFAQ(ctx, audience)
	if err != nil {
		return nil, err
	}
	return DecodePayload(raw)
}

var _ faq.Source = (*BackendSource)(nil)
