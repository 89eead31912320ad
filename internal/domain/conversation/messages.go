package conversation

import (
	"fmt"
	"strings"
)

const (
	// FollowUpPrompt is appended after every answer.
	FollowUpPrompt = "Was I able to answer your question?"

	FeedbackYes  = "You selected: Yes. Ask me another question!"
	FeedbackNo   = "You selected: No. Try rewording your question and make sure you are asking one question at a time. Ask me again!"
	FeedbackNone = "You provided no feedback. Ask me another question!"
)

// Greeting returns the welcome message for a new session.
func Greeting(firstName string, forStaff bool) string {
	topic := "your first year of engineering"
	if forStaff {
		topic = "the first-year engineering office"
	}
	return fmt.Sprintf("Hello %s, it's nice to meet you! I am the FYEO chatbot and I'm here to answer any of your questions about %s.", firstName, topic)
}

// FeedbackMessage maps a yes/no/none choice to its reply.
func FeedbackMessage(helpful *bool) string {
	switch {
	case helpful == nil:
		return FeedbackNone
	case *helpful:
		return FeedbackYes
	default:
		return FeedbackNo
	}
}

// StreamChunks splits an answer into word frames, each followed by a space.
func StreamChunks(answer string) []string {
	words := strings.Fields(answer)
	chunks := make([]string, len(words))
	for i, word := range words {
		chunks[i] = word + " "
	}
	return chunks
}
