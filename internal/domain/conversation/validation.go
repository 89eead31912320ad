package conversation

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// intake is a form that passed validation, with canonical field values.
type intake struct {
	audience      faq.Audience
	studentNumber string
	firstName     string
	lastName      string
	program       string
	email         string
}

type formValidator struct {
	domains   map[string]struct{}
	programs  map[string]string
	staffHash []byte
}

func newFormValidator(cfg Config) *formValidator {
	v := &formValidator{
		domains:   make(map[string]struct{}, len(cfg.EmailDomains)),
		programs:  make(map[string]string, len(cfg.Programs)),
		staffHash: []byte(cfg.StaffPasswordHash),
	}
	for _, d := range cfg.EmailDomains {
		v.domains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	for _, p := range cfg.Programs {
		v.programs[strings.ToLower(strings.TrimSpace(p))] = p
	}
	return v
}

// validate checks the form in the order the user sees errors: presence first, then format.
func (v *formValidator) validate(req StartRequest) (intake, error) {
	audience := req.Audience
	if audience == "" {
		audience = faq.AudienceStudent
	}
	in := intake{
		audience:      audience,
		studentNumber: strings.TrimSpace(req.StudentNumber),
		firstName:     strings.TrimSpace(req.FirstName),
		lastName:      strings.TrimSpace(req.LastName),
		program:       strings.TrimSpace(req.Program),
		email:         strings.TrimSpace(req.Email),
	}

	switch audience {
	case faq.AudienceStudent:
		if in.studentNumber == "" || in.firstName == "" || in.lastName == "" || in.program == "" || in.email == "" {
			return intake{}, ErrMissingInformation
		}
		if !isNumeric(in.studentNumber) {
			return intake{}, ErrInvalidStudentNumber
		}
		if !v.allowedEmail(in.email) {
			return intake{}, ErrInvalidEmail
		}
		program, ok := v.programs[strings.ToLower(in.program)]
		if !ok {
			return intake{}, ErrInvalidProgram
		}
		in.program = program
	case faq.AudienceStaff:
		if in.firstName == "" || in.lastName == "" || in.email == "" || req.Password == "" {
			return intake{}, ErrMissingInformation
		}
		if !v.allowedEmail(in.email) {
			return intake{}, ErrInvalidEmail
		}
		if len(v.staffHash) == 0 || bcrypt.CompareHashAndPassword(v.staffHash, []byte(req.Password)) != nil {
			return intake{}, ErrInvalidPassword
		}
		in.studentNumber = ""
		in.program = ""
	default:
		return intake{}, ErrInvalidAudience
	}
	in.email = strings.ToLower(in.email)
	return in, nil
}

func (v *formValidator) allowedEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	_, ok := v.domains[strings.ToLower(email[at+1:])]
	return ok
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
