package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/config"
	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

const (
	studentToken = "student-token"
	staffToken   = "staff-token"
)

func TestRouter_StartSession(t *testing.T) {
	conv := &stubConversation{
		startFn: func(ctx context.Context, req conversation.StartRequest) (conversation.StartResponse, error) {
			require.Equal(t, "Ada", req.FirstName)
			return conversation.StartResponse{SessionID: "s-1", Token: "tok", Greeting: "Hello Ada"}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/sessions", `{"firstName":"Ada"}`, "", newRouterUnderTest(t, &stubFAQ{}, conv))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var got conversation.StartResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "s-1", got.SessionID)
	require.Equal(t, "Hello Ada", got.Greeting)
}

func TestRouter_StartSessionInvalidForm(t *testing.T) {
	conv := &stubConversation{
		startFn: func(ctx context.Context, req conversation.StartRequest) (conversation.StartResponse, error) {
			return conversation.StartResponse{}, apperrors.Wrap(conversation.CodeInvalidInput, "invalid email", conversation.ErrInvalidEmail)
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/sessions", `{"email":"x@gmail.com"}`, "", newRouterUnderTest(t, &stubFAQ{}, conv))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, conversation.CodeInvalidInput, errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "invalid email")
}

func TestRouter_AskRequiresBearerToken(t *testing.T) {
	server := newRouterUnderTest(t, &stubFAQ{}, &stubConversation{})

	recorder := performRequest(http.MethodPost, "/api/v1/chat/messages", `{"question":"hi"}`, "", server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = performRequest(http.MethodPost, "/api/v1/chat/messages", `{"question":"hi"}`, "expired", server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, conversation.CodeInvalidToken, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_AskSuccess(t *testing.T) {
	conv := &stubConversation{
		askFn: func(ctx context.Context, sessionID, question string) (conversation.AskResponse, error) {
			require.Equal(t, "session-student", sessionID)
			require.Equal(t, "where is the office", question)
			return conversation.AskResponse{QueryID: "q-1", Tag: "location", Answer: "ENG340A", Outcome: faq.OutcomeValidated, FollowUp: conversation.FollowUpPrompt}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/chat/messages", `{"question":"where is the office"}`, studentToken, newRouterUnderTest(t, &stubFAQ{}, conv))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got conversation.AskResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "location", got.Tag)
	require.Equal(t, conversation.FollowUpPrompt, got.FollowUp)
}

func TestRouter_AskMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"empty question", apperrors.Wrap(faq.CodeInvalidInput, "question cannot be empty", nil), http.StatusBadRequest},
		{"no dataset", apperrors.Wrap(faq.CodeEmptyIndex, "no faq patterns loaded", faq.ErrEmptyIndex), http.StatusServiceUnavailable},
		{"bad dataset", apperrors.Wrap(faq.CodeMalformedEntry, "malformed faq entry", nil), http.StatusInternalServerError},
		{"gone session", apperrors.Wrap(conversation.CodeSessionNotFound, "session not found", nil), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := &stubConversation{
				askFn: func(ctx context.Context, sessionID, question string) (conversation.AskResponse, error) {
					return conversation.AskResponse{}, tc.err
				},
			}
			recorder := performRequest(http.MethodPost, "/api/v1/chat/messages", `{"question":"x"}`, studentToken, newRouterUnderTest(t, &stubFAQ{}, conv))
			require.Equal(t, tc.status, recorder.Code)
		})
	}
}

func TestRouter_AskStreamFrames(t *testing.T) {
	conv := &stubConversation{
		askFn: func(ctx context.Context, sessionID, question string) (conversation.AskResponse, error) {
			return conversation.AskResponse{QueryID: "q-2", Tag: "hours", Answer: "Open nine to four", Outcome: faq.OutcomeValidated}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/chat/messages/stream", `{"question":"when are you open"}`, studentToken, newRouterUnderTest(t, &stubFAQ{}, conv))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n\n")
	require.Len(t, frames, 5)

	var words []string
	for i, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "))
		var got streamFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &got))
		if i < len(frames)-1 {
			require.False(t, got.Completed)
			words = append(words, got.Delta)
			continue
		}
		require.True(t, got.Completed)
		require.NotNil(t, got.Result)
		require.Equal(t, "q-2", got.Result.QueryID)
	}
	require.Equal(t, "Open nine to four ", strings.Join(words, ""))
}

func TestRouter_FeedbackPassesChoice(t *testing.T) {
	var seen []*bool
	conv := &stubConversation{
		feedbackFn: func(ctx context.Context, sessionID string, helpful *bool) (conversation.FeedbackResponse, error) {
			seen = append(seen, helpful)
			return conversation.FeedbackResponse{Message: conversation.FeedbackMessage(helpful), Resolved: helpful != nil && *helpful}, nil
		},
	}
	server := newRouterUnderTest(t, &stubFAQ{}, conv)

	recorder := performRequest(http.MethodPost, "/api/v1/chat/feedback", `{"helpful":true}`, studentToken, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var got conversation.FeedbackResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.True(t, got.Resolved)
	require.Equal(t, conversation.FeedbackYes, got.Message)

	recorder = performRequest(http.MethodPost, "/api/v1/chat/feedback", `{"helpful":null}`, studentToken, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, seen, 2)
	require.Nil(t, seen[1])
}

func TestRouter_TrendingUsesAudienceQuery(t *testing.T) {
	faqSvc := &stubFAQ{
		trendingFn: func(ctx context.Context, audience faq.Audience) ([]faq.TrendingQuery, error) {
			require.Equal(t, faq.AudienceStaff, audience)
			return []faq.TrendingQuery{{Tag: "location", Count: 3}}, nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/faq/trending?audience=staff", "", "", newRouterUnderTest(t, faqSvc, &stubConversation{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Recommendations []faq.TrendingQuery `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, []faq.TrendingQuery{{Tag: "location", Count: 3}}, body.Recommendations)
}

func TestRouter_ReloadIsStaffOnly(t *testing.T) {
	var reloaded []faq.Audience
	faqSvc := &stubFAQ{
		reloadFn: func(ctx context.Context, audience faq.Audience) (faq.ReloadResult, error) {
			reloaded = append(reloaded, audience)
			return faq.ReloadResult{Audience: audience, Rebuilt: true}, nil
		},
	}
	server := newRouterUnderTest(t, faqSvc, &stubConversation{})

	recorder := performRequest(http.MethodPost, "/api/v1/faq/reload", `{"audience":"student"}`, studentToken, server)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Empty(t, reloaded)

	recorder = performRequest(http.MethodPost, "/api/v1/faq/reload", `{"audience":"student"}`, staffToken, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, []faq.Audience{faq.AudienceStudent}, reloaded)

	recorder = performRequest(http.MethodPost, "/api/v1/faq/reload", "", staffToken, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, []faq.Audience{faq.AudienceStudent, faq.AudienceStudent, faq.AudienceStaff}, reloaded)
}

func TestRouter_Healthz(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/healthz", "", "", newRouterUnderTest(t, &stubFAQ{}, &stubConversation{}))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func performRequest(method, path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, faqSvc faq.Service, convSvc conversation.Service) *http.Server {
	t.Helper()
	return newRouterWithHTTPConfig(t, faqSvc, convSvc, nil)
}

func newRouterWithHTTPConfig(t *testing.T, faqSvc faq.Service, convSvc conversation.Service, mutate func(*config.HTTPConfig)) *http.Server {
	t.Helper()
	logger := newTestLogger()
	handler := NewHandler(faqSvc, convSvc, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(&cfg.HTTP)
	}
	return NewRouter(cfg, handler, convSvc, logger)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubFAQ struct {
	trendingFn func(ctx context.Context, audience faq.Audience) ([]faq.TrendingQuery, error)
	reloadFn   func(ctx context.Context, audience faq.Audience) (faq.ReloadResult, error)
}

func (s *stubFAQ) Answer(ctx context.Context, req faq.Request) (faq.Response, error) {
	return faq.Response{}, nil
}

func (s *stubFAQ) Trending(ctx context.Context, audience faq.Audience) ([]faq.TrendingQuery, error) {
	if s.trendingFn != nil {
		return s.trendingFn(ctx, audience)
	}
	return nil, nil
}

func (s *stubFAQ) Reload(ctx context.Context, audience faq.Audience) (faq.ReloadResult, error) {
	if s.reloadFn != nil {
		return s.reloadFn(ctx, audience)
	}
	return faq.ReloadResult{Audience: audience}, nil
}

type stubConversation struct {
	startFn    func(ctx context.Context, req conversation.StartRequest) (conversation.StartResponse, error)
	askFn      func(ctx context.Context, sessionID, question string) (conversation.AskResponse, error)
	feedbackFn func(ctx context.Context, sessionID string, helpful *bool) (conversation.FeedbackResponse, error)
}

func (s *stubConversation) Start(ctx context.Context, req conversation.StartRequest) (conversation.StartResponse, error) {
	if s.startFn != nil {
		return s.startFn(ctx, req)
	}
	return conversation.StartResponse{}, nil
}

func (s *stubConversation) Ask(ctx context.Context, sessionID, question string) (conversation.AskResponse, error) {
	if s.askFn != nil {
		return s.askFn(ctx, sessionID, question)
	}
	return conversation.AskResponse{}, nil
}

func (s *stubConversation) Feedback(ctx context.Context, sessionID string, helpful *bool) (conversation.FeedbackResponse, error) {
	if s.feedbackFn != nil {
		return s.feedbackFn(ctx, sessionID, helpful)
	}
	return conversation.FeedbackResponse{}, nil
}

// Authenticate accepts two fixed tokens, one per audience.
func (s *stubConversation) Authenticate(ctx context.Context, token string) (conversation.Claims, error) {
	switch token {
	case studentToken:
		return conversation.Claims{SessionID: "session-student", Audience: faq.AudienceStudent}, nil
	case staffToken:
		return conversation.Claims{SessionID: "session-staff", Audience: faq.AudienceStaff}, nil
	}
	return conversation.Claims{}, apperrors.Wrap(conversation.CodeInvalidToken, "token invalid", nil)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
