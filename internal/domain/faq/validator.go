package faq

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ignoredWords are function words and punctuation dropped before stemming.
var ignoredWords = map[string]struct{}{
	"?": {}, "!": {}, ".": {}, ",": {}, ";": {}, ":": {},
	"the": {}, "and": {}, "but": {}, "for": {}, "nor": {}, "yet": {},
	"are": {}, "was": {}, "were": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"does": {}, "did": {}, "have": {}, "has": {}, "had": {}, "will": {}, "shall": {},
	"you": {}, "your": {}, "let": {}, "need": {},
	"where": {}, "why": {}, "what": {}, "how": {}, "when": {}, "who": {}, "which": {},
}

// Validator rejects semantically close matches that share no vocabulary with the question.
type Validator struct {
	stemmer Stemmer
}

// NewValidator constructs a Validator around a stemming service.
func NewValidator(stemmer Stemmer) *Validator {
	return &Validator{stemmer: stemmer}
}

// Validate reports whether any stemmed content word of query occurs as a substring of the
// response, the tag, or the tag's patterns. Stems are searched as regular expressions and
// deliberately not anchored to word boundaries.
func (v *Validator) Validate(tag string, patterns []string, query, response string) bool {
	stems := v.queryStems(query)
	if len(stems) == 0 {
		return false
	}
	targets := []string{
		strings.ToLower(response),
		strings.ToLower(tag),
		strings.ToLower(strings.Join(patterns, " ")),
	}
	for _, stem := range stems {
		re := compileStem(stem)
		for _, target := range targets {
			if re.MatchString(target) {
				return true
			}
		}
	}
	return false
}

func (v *Validator) queryStems(query string) []string {
	tokens := Tokenize(strings.ToLower(query))
	stems := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, skip := ignoredWords[token]; skip || utf8.RuneCountInString(token) <= 2 {
			continue
		}
		stems = append(stems, v.stemmer.Stem(token))
	}
	if len(stems) > 0 {
		return stems
	}
	for _, token := range tokens {
		stems = append(stems, v.stemmer.Stem(token))
	}
	return stems
}

// compileStem treats the stem as a pattern; stems that are not valid expressions are matched literally.
func compileStem(stem string) *regexp.Regexp {
	re, err := regexp.Compile(stem)
	if err != nil {
		return regexp.MustCompile(regexp.QuoteMeta(stem))
	}
	return re
}
