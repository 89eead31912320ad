package conversation

import (
	"time"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// StartRequest is the intake form submitted before chatting.
type StartRequest struct {
	Audience      faq.Audience `json:"audience"`
	StudentNumber string       `json:"studentNumber"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Program       string       `json:"program"`
	Email         string       `json:"email"`
	Password      string       `json:"password,omitempty"`
}

// StartResponse carries the new session and its greeting.
type StartResponse struct {
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Audience  faq.Audience `json:"audience"`
	Greeting  string       `json:"greeting"`
}

// Session is the per-user conversation context. The session id doubles as the conversation id.
type Session struct {
	ID            string       `json:"id"`
	Audience      faq.Audience `json:"audience"`
	StudentNumber string       `json:"studentNumber,omitempty"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Program       string       `json:"program,omitempty"`
	Email         string       `json:"email"`
	LastQueryID   string       `json:"lastQueryId,omitempty"`
	Turns         int          `json:"turns"`
	CreatedAt     time.Time    `json:"createdAt"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

// ForStaff reports whether the session answers from the staff dataset.
func (s Session) ForStaff() bool {
	return s.Audience == faq.AudienceStaff
}

// AskResponse is the reply to one question.
type AskResponse struct {
	QueryID  string      `json:"queryId"`
	Tag      string      `json:"tag,omitempty"`
	Answer   string      `json:"answer"`
	Outcome  faq.Outcome `json:"outcome"`
	Score    float64     `json:"score"`
	FollowUp string      `json:"followUp"`
}

// FeedbackResponse acknowledges a yes/no/none feedback choice.
type FeedbackResponse struct {
	Message  string `json:"message"`
	Resolved bool   `json:"resolved"`
}

// Claims are the verified contents of a session token.
type Claims struct {
	SessionID string
	Audience  faq.Audience
	Email     string
	ExpiresAt time.Time
}

// ConversationStart is logged when a session begins.
type ConversationStart struct {
	ConversationID string       `json:"conversationId"`
	Audience       faq.Audience `json:"audience"`
	StudentNumber  string       `json:"studentNumber,omitempty"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	Program        string       `json:"program,omitempty"`
	Email          string       `json:"email"`
	StartedAt      time.Time    `json:"startedAt"`
}

// QueryRecord is logged for every answered question.
type QueryRecord struct {
	ConversationID string    `json:"conversationId"`
	QueryID        string    `json:"queryId"`
	Question       string    `json:"question"`
	Tag            string    `json:"tag"`
	Response       string    `json:"response"`
	ForStaff       bool      `json:"forStaff"`
	AskedAt        time.Time `json:"askedAt"`
}

// Resolution marks a query as answered to the user's satisfaction.
type Resolution struct {
	ConversationID string    `json:"conversationId"`
	QueryID        string    `json:"queryId"`
	ResolvedAt     time.Time `json:"resolvedAt"`
}
