package faq

import "time"

// Audience selects which FAQ dataset a question is answered from.
type Audience string

const (
	// AudienceStudent is the default dataset for first-year students.
	AudienceStudent Audience = "student"
	// AudienceStaff is the dataset served to office staff.
	AudienceStaff Audience = "staff"
)

// Valid reports whether the audience is one of the known datasets.
func (a Audience) Valid() bool {
	return a == AudienceStudent || a == AudienceStaff
}

// Audiences lists every known dataset in load order.
func Audiences() []Audience {
	return []Audience{AudienceStudent, AudienceStaff}
}

// Entry is one curated intent: a tag, the phrasings that express it and the canned replies.
type Entry struct {
	Tag       string   `json:"tag" yaml:"tag" toml:"tag"`
	Patterns  []string `json:"patterns" yaml:"patterns" toml:"patterns"`
	Responses []string `json:"responses" yaml:"responses" toml:"responses"`
}

// Outcome identifies the terminal state reached by the response selector.
type Outcome string

const (
	// OutcomeValidated means a canned response passed lexical validation.
	OutcomeValidated Outcome = "validated"
	// OutcomeNoMatch means the fallback answer was returned with an empty tag.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeUnavailable means the embedding service failed and the unavailable answer was returned.
	OutcomeUnavailable Outcome = "unavailable"
)

// Match is the best scoring pattern for a query.
type Match struct {
	Tag     string
	Pattern string
	Score   float64
}

// Result is the selector output for a single question.
type Result struct {
	Tag     string
	Pattern string
	Score   float64
	Answer  string
	Outcome Outcome
}

// Matched reports whether a canned response was selected.
func (r Result) Matched() bool {
	return r.Outcome == OutcomeValidated && r.Tag != ""
}

// Request encapsulates a FAQ question.
type Request struct {
	Question string   `json:"question"`
	Audience Audience `json:"audience"`
}

// Response is returned to transports and the conversation layer.
type Response struct {
	Question       string   `json:"question"`
	Tag            string   `json:"tag"`
	Answer         string   `json:"answer"`
	Outcome        Outcome  `json:"outcome"`
	Audience       Audience `json:"audience"`
	Score          float64  `json:"score"`
	MatchedPattern string   `json:"matchedPattern,omitempty"`
	DurationMs     int64    `json:"durationMs"`
}

// TrendingQuery represents a frequently matched intent.
type TrendingQuery struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// ReloadResult describes the outcome of a forced dataset refresh.
type ReloadResult struct {
	Audience    Audience  `json:"audience"`
	Rebuilt     bool      `json:"rebuilt"`
	Entries     int       `json:"entries"`
	Patterns    int       `json:"patterns"`
	Fingerprint string    `json:"fingerprint"`
	BuiltAt     time.Time `json:"builtAt"`
}
