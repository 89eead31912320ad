package faq

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
)

type selectorState int

const (
	stateNoMatch selectorState = iota
	stateCandidateFound
	stateValidated
)

func (s selectorState) String() string {
	switch s {
	case stateCandidateFound:
		return "candidate_found"
	case stateValidated:
		return "validated"
	default:
		return "no_match"
	}
}

// Selector runs the two-stage decision: semantic match above threshold, then lexical validation
// of one randomly drawn response. Every collaborator is passed in explicitly.
type Selector struct {
	cfg       Config
	embedder  Embedder
	validator *Validator
	pick      Picker
	logger    *slog.Logger
}

// NewSelector wires a selector. A nil picker draws uniformly at random.
func NewSelector(cfg Config, embedder Embedder, validator *Validator, pick Picker, logger *slog.Logger) *Selector {
	if pick == nil {
		pick = rand.IntN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		cfg:       cfg.withDefaults(),
		embedder:  embedder,
		validator: validator,
		pick:      pick,
		logger:    logger.With("component", "faq.selector"),
	}
}

// Select answers query against a loaded knowledge base. Embedding failures are translated into
// the unavailable answer; an empty knowledge base is returned as an error.
func (s *Selector) Select(ctx context.Context, kb *KnowledgeBase, query string) (Result, error) {
	if kb == nil || kb.Index.Len() == 0 {
		return Result{}, emptyIndexError()
	}
	normalized := Normalize(query)
	if normalized == "" {
		return s.noMatch(Match{}), nil
	}

	match, err := BestMatch(ctx, normalized, kb.Index, s.embedder)
	if err != nil {
		if errors.Is(err, ErrEmbeddingService) {
			s.logger.Warn("embedding unavailable, returning unavailable answer", "audience", kb.Audience, "error", err)
			return Result{Answer: s.cfg.UnavailableAnswer, Outcome: OutcomeUnavailable}, nil
		}
		return Result{}, err
	}

	state := stateNoMatch
	var candidate string
	if match.Score > *s.cfg.SimilarityThreshold {
		if entry, ok := kb.Entry(match.Tag); ok {
			candidate = entry.Responses[s.pick(len(entry.Responses))]
			state = stateCandidateFound
			if s.validator.Validate(entry.Tag, entry.Patterns, normalized, candidate) {
				state = stateValidated
			}
		}
	}

	s.logger.Debug("faq selection", "audience", kb.Audience, "tag", match.Tag, "pattern", match.Pattern, "score", match.Score, "state", state)
	if state != stateValidated {
		return s.noMatch(match), nil
	}
	return Result{
		Tag:     match.Tag,
		Pattern: match.Pattern,
		Score:   match.Score,
		Answer:  candidate,
		Outcome: OutcomeValidated,
	}, nil
}

func (s *Selector) noMatch(match Match) Result {
	return Result{
		Pattern: match.Pattern,
		Score:   match.Score,
		Answer:  s.cfg.FallbackAnswer,
		Outcome: OutcomeNoMatch,
	}
}

// Threshold returns the effective similarity threshold.
func (s *Selector) Threshold() float64 {
	return *s.cfg.SimilarityThreshold
}
