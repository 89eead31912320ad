package faq

import "time"

const (
	// DefaultSimilarityThreshold is the empirically chosen minimum dot-product score.
	DefaultSimilarityThreshold = 0.7
	// DefaultFallbackAnswer is returned when no confident, lexically valid match exists.
	DefaultFallbackAnswer = "Hmm... I do not understand that question. If I cannot answer your question you can email firstyeareng@torontomu.ca or stop by our office (located: ENG340A) Monday to Friday from 9 am to 4 pm. Please try again or ask a different question."
	// DefaultUnavailableAnswer is returned when the embedding service cannot be reached.
	DefaultUnavailableAnswer = "Sorry, I am temporarily unable to look up answers. Please try again in a moment."
)

// Config holds runtime knobs for the FAQ service.
type Config struct {
	// SimilarityThreshold is the score a match must exceed. Nil means
	// DefaultSimilarityThreshold; zero and negative values are honored.
	SimilarityThreshold *float64
	FallbackAnswer      string
	UnavailableAnswer   string
	TopRecommendations  int
	TrendingTTL         time.Duration
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold == nil {
		c.SimilarityThreshold = Threshold(DefaultSimilarityThreshold)
	}
	if c.FallbackAnswer == "" {
		c.FallbackAnswer = DefaultFallbackAnswer
	}
	if c.UnavailableAnswer == "" {
		c.UnavailableAnswer = DefaultUnavailableAnswer
	}
	if c.TopRecommendations <= 0 {
		c.TopRecommendations = 10
	}
	return c
}

// Threshold returns v as a configured similarity threshold.
func Threshold(v float64) *float64 {
	return &v
}
