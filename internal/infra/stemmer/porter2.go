package stemmer

import (
	"github.com/surgebase/porter2"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// Porter2 stems English tokens with the Snowball (Porter2) algorithm.
type Porter2 struct{}

// NewPorter2 constructs the stemmer.
func NewPorter2() Porter2 {
	return Porter2{}
}

// Stem reduces token to its root form. Callers pass lowercase tokens.
func (Porter2) Stem(token string) string {
	return porter2.Stem(token)
}

var _ faq.Stemmer = Porter2{}
