package faq

import (
	"strings"
	"unicode"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize lowercases text, strips ASCII punctuation and joins the remaining words with single spaces.
// Patterns and queries go through the same function so they share one representation.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	var builder strings.Builder
	builder.Grow(len(lowered))
	for _, r := range lowered {
		if r < unicode.MaxASCII && strings.ContainsRune(asciiPunctuation, r) {
			continue
		}
		builder.WriteRune(r)
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// Tokenize splits text into word tokens. Punctuation runes become tokens of their own,
// except an apostrophe between two letters, which keeps contractions whole.
func Tokenize(text string) []string {
	runes := []rune(text)
	tokens := make([]string, 0, len(runes)/4+1)
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			word.WriteRune(r)
		case isApostrophe(r) && word.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}
