package faq

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
	"github.com/yanqian/faq-chatbot/pkg/metrics"
)

// Service exposes FAQ answering to transports and the conversation layer.
type Service interface {
	Answer(ctx context.Context, req Request) (Response, error)
	Trending(ctx context.Context, audience Audience) ([]TrendingQuery, error)
	Reload(ctx context.Context, audience Audience) (ReloadResult, error)
}

type service struct {
	cfg      Config
	catalog  *Catalog
	selector *Selector
	store    Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the FAQ domain.
func NewService(cfg Config, catalog *Catalog, selector *Selector, store Store, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg.withDefaults(),
		catalog:  catalog,
		selector: selector,
		store:    store,
		logger:   logger.With("component", "faq.service"),
		now:      time.Now,
	}
}

func (s *service) Answer(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, apperrors.Wrap(CodeInvalidInput, "question cannot be empty", nil)
	}
	audience, err := resolveAudience(req.Audience)
	if err != nil {
		return Response{}, err
	}

	started := s.now()
	kb, err := s.catalog.Get(ctx, audience)
	if err != nil {
		return Response{}, err
	}
	result, err := s.selector.Select(ctx, kb, question)
	if err != nil {
		return Response{}, err
	}
	elapsed := s.now().Sub(started)
	metrics.ObserveAnswer(string(audience), string(result.Outcome), elapsed)

	if result.Matched() {
		if err := s.store.IncrementTag(ctx, audience, result.Tag); err != nil {
			s.logger.Warn("faq trending increment failed", "error", err)
		}
	}

	return Response{
		Question:       question,
		Tag:            result.Tag,
		Answer:         result.Answer,
		Outcome:        result.Outcome,
		Audience:       audience,
		Score:          result.Score,
		MatchedPattern: result.Pattern,
		DurationMs:     elapsed.Milliseconds(),
	}, nil
}

func (s *service) Trending(ctx context.Context, audience Audience) ([]TrendingQuery, error) {
	audience, err := resolveAudience(audience)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.TopTags(ctx, audience, s.cfg.TopRecommendations)
	if err != nil {
		return nil, apperrors.Wrap("faq_error", "failed to load trending tags", err)
	}
	return recs, nil
}

func (s *service) Reload(ctx context.Context, audience Audience) (ReloadResult, error) {
	audience, err := resolveAudience(audience)
	if err != nil {
		return ReloadResult{}, err
	}
	kb, rebuilt, err := s.catalog.Refresh(ctx, audience)
	if err != nil {
		return ReloadResult{}, err
	}
	return ReloadResult{
		Audience:    audience,
		Rebuilt:     rebuilt,
		Entries:     len(kb.Entries),
		Patterns:    kb.Index.Len(),
		Fingerprint: formatFingerprint(kb.Fingerprint),
		BuiltAt:     kb.BuiltAt,
	}, nil
}

func resolveAudience(a Audience) (Audience, error) {
	if a == "" {
		return AudienceStudent, nil
	}
	if !a.Valid() {
		return "", apperrors.Wrap(CodeInvalidInput, "unknown audience "+string(a), nil)
	}
	return a, nil
}
