package conversation

import "time"

// DefaultPrograms are the engineering programs accepted on the student form.
var DefaultPrograms = []string{
	"Aerospace", "Biomedical", "Chemical", "Civil",
	"Computer", "Electrical", "Industrial", "Mechanical",
}

// DefaultEmailDomains are the institutional domains accepted on both forms.
var DefaultEmailDomains = []string{"ryerson.ca", "torontomu.ca"}

// Config holds conversation settings.
type Config struct {
	TokenSecret       string
	TokenIssuer       string
	SessionTTL        time.Duration
	StaffPasswordHash string
	EmailDomains      []string
	Programs          []string
}

func (c Config) withDefaults() Config {
	if c.TokenIssuer == "" {
		c.TokenIssuer = "faq-chatbot"
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if len(c.EmailDomains) == 0 {
		c.EmailDomains = DefaultEmailDomains
	}
	if len(c.Programs) == 0 {
		c.Programs = DefaultPrograms
	}
	return c
}
