package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
	"github.com/yanqian/faq-chatbot/pkg/util"
)

// Service runs chat sessions: intake, question turns, and feedback.
type Service interface {
	Start(ctx context.Context, req StartRequest) (StartResponse, error)
	Ask(ctx context.Context, sessionID, question string) (AskResponse, error)
	Feedback(ctx context.Context, sessionID string, helpful *bool) (FeedbackResponse, error)
	Authenticate(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg       Config
	answerer  Answerer
	sessions  SessionStore
	recorder  Recorder
	validator *formValidator
	tokens    *tokenIssuer
	locks     *sessionLocks
	logger    *slog.Logger
	now       util.Clock
	newID     func() string
}

// NewService wires the conversation domain.
func NewService(cfg Config, answerer Answerer, sessions SessionStore, recorder Recorder, logger *slog.Logger) Service {
	cfg = cfg.withDefaults()
	now := util.NowUTC
	return &service{
		cfg:       cfg,
		answerer:  answerer,
		sessions:  sessions,
		recorder:  recorder,
		validator: newFormValidator(cfg),
		tokens:    &tokenIssuer{secret: []byte(cfg.TokenSecret), issuer: cfg.TokenIssuer, now: now},
		locks:     newSessionLocks(),
		logger:    logger.With("component", "conversation.service"),
		now:       now,
		newID:     uuid.NewString,
	}
}

func (s *service) Start(ctx context.Context, req StartRequest) (StartResponse, error) {
	in, err := s.validator.validate(req)
	if err != nil {
		return StartResponse{}, apperrors.Wrap(CodeInvalidInput, err.Error(), err)
	}

	now := s.now()
	session := Session{
		ID:            s.newID(),
		Audience:      in.audience,
		StudentNumber: in.studentNumber,
		FirstName:     in.firstName,
		LastName:      in.lastName,
		Program:       in.program,
		Email:         in.email,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return StartResponse{}, apperrors.Wrap(CodeInternal, "failed to save session", err)
	}
	token, err := s.tokens.issue(session)
	if err != nil {
		return StartResponse{}, err
	}

	if err := s.recorder.ConversationStarted(ctx, ConversationStart{
		ConversationID: session.ID,
		Audience:       session.Audience,
		StudentNumber:  session.StudentNumber,
		FirstName:      session.FirstName,
		LastName:       session.LastName,
		Program:        session.Program,
		Email:          session.Email,
		StartedAt:      now,
	}); err != nil {
		s.logger.Warn("conversation start not logged", "session", session.ID, "error", err)
	}
	s.logger.Info("conversation started", "session", session.ID, "audience", session.Audience)

	return StartResponse{
		SessionID: session.ID,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Audience:  session.Audience,
		Greeting:  Greeting(session.FirstName, session.ForStaff()),
	}, nil
}

func (s *service) Ask(ctx context.Context, sessionID, question string) (AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResponse{}, apperrors.Wrap(CodeInvalidInput, "question cannot be empty", nil)
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return AskResponse{}, err
	}
	answer, err := s.answerer.Answer(ctx, faq.Request{Question: question, Audience: session.Audience})
	if err != nil {
		return AskResponse{}, err
	}

	queryID := s.newID()
	if err := s.recorder.QueryAnswered(ctx, QueryRecord{
		ConversationID: session.ID,
		QueryID:        queryID,
		Question:       question,
		Tag:            answer.Tag,
		Response:       answer.Answer,
		ForStaff:       session.ForStaff(),
		AskedAt:        s.now(),
	}); err != nil {
		s.logger.Warn("query not logged", "session", session.ID, "query", queryID, "error", err)
	}

	session.LastQueryID = queryID
	session.Turns++
	if err := s.saveSession(ctx, session); err != nil {
		return AskResponse{}, err
	}

	return AskResponse{
		QueryID:  queryID,
		Tag:      answer.Tag,
		Answer:   answer.Answer,
		Outcome:  answer.Outcome,
		Score:    answer.Score,
		FollowUp: FollowUpPrompt,
	}, nil
}

func (s *service) Feedback(ctx context.Context, sessionID string, helpful *bool) (FeedbackResponse, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return FeedbackResponse{}, err
	}
	resp := FeedbackResponse{Message: FeedbackMessage(helpful)}
	if helpful == nil || !*helpful || session.LastQueryID == "" {
		return resp, nil
	}

	if err := s.recorder.QueryResolved(ctx, Resolution{
		ConversationID: session.ID,
		QueryID:        session.LastQueryID,
		ResolvedAt:     s.now(),
	}); err != nil {
		s.logger.Warn("query resolution not logged", "session", session.ID, "query", session.LastQueryID, "error", err)
	}
	session.LastQueryID = ""
	if err := s.saveSession(ctx, session); err != nil {
		return FeedbackResponse{}, err
	}
	resp.Resolved = true
	return resp, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.tokens.parse(token)
	if err != nil {
		return Claims{}, err
	}
	if _, err := s.loadSession(ctx, claims.SessionID); err != nil {
		if apperrors.IsCode(err, CodeSessionNotFound) {
			return Claims{}, apperrors.Wrap(CodeInvalidToken, "session expired", err)
		}
		return Claims{}, err
	}
	return claims, nil
}

func (s *service) loadSession(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, apperrors.Wrap(CodeSessionNotFound, "session not found", nil)
	}
	session, found, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, apperrors.Wrap(CodeInternal, "failed to load session", err)
	}
	if !found || (!session.ExpiresAt.IsZero() && session.ExpiresAt.Before(s.now())) {
		return Session{}, apperrors.Wrap(CodeSessionNotFound, "session not found", nil)
	}
	return session, nil
}

func (s *service) saveSession(ctx context.Context, session Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperrors.Wrap(CodeSessionNotFound, "session expired", nil)
	}
	if err := s.sessions.Save(ctx, session, ttl); err != nil {
		return apperrors.Wrap(CodeInternal, "failed to save session", err)
	}
	return nil
}

