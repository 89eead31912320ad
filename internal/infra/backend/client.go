package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/pkg/util"
)

// placeholder sent for form fields staff do not fill in.
const notApplicable = "None"

// Config points the client at the FYEO backend.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration

	// MappingTTL bounds how long local ids stay mapped to backend ids.
	// It should match the session TTL: nothing is logged for an expired session.
	MappingTTL time.Duration
}

type remoteID struct {
	id      json.RawMessage
	expires time.Time
}

// Client talks to the FYEO backend: login, FAQ datasets, and conversation logging.
// It maps local conversation and query ids onto the ids the backend assigns.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	token         string
	conversations map[string]remoteID
	queries       map[string]remoteID
	nextSweep     time.Time
	now           util.Clock
}

// NewClient builds a backend client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base url cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MappingTTL <= 0 {
		cfg.MappingTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger.With("component", "backend.client"),
		conversations: make(map[string]remoteID),
		queries:       make(map[string]remoteID),
		now:           util.NowUTC,
	}, nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// FetchFAQ returns the raw FAQ payload for an audience: {"FAQ": [...]}.
func (c *Client) FetchFAQ(ctx context.Context, audience faq.Audience) ([]byte, error) {
	path := "/faq"
	if audience == faq.AudienceStaff {
		path += "?for_staff=true"
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

type startPayload struct {
	StudentID string `json:"student_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Program   string `json:"program"`
	Email     string `json:"email"`
}

type answerPayload struct {
	ConversationID json.RawMessage `json:"conversation_id"`
	Question       string          `json:"question"`
	Tag            string          `json:"tag"`
	Response       string          `json:"response"`
	ForStaff       bool            `json:"for_staff"`
}

type resolvePayload struct {
	ConversationID json.RawMessage `json:"conversation_id"`
	QueryID        json.RawMessage `json:"query_id"`
}

type idEnvelope struct {
	Conversation *struct {
		ID json.RawMessage `json:"id"`
	} `json:"conversation"`
	Query *struct {
		ID json.RawMessage `json:"id"`
	} `json:"query"`
}

// StartConversation implements conversation.LogSink.
func (c *Client) StartConversation(ctx context.Context, event conversation.ConversationStart) error {
	payload := startPayload{
		StudentID: orNotApplicable(event.StudentNumber),
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Program:   orNotApplicable(event.Program),
		Email:     event.Email,
	}
	body, err := c.do(ctx, http.MethodPost, "/chat/start", payload)
	if err != nil {
		return err
	}
	var out idEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode conversation: %w", err)
	}
	if out.Conversation == nil || len(out.Conversation.ID) == 0 {
		return errors.New("backend returned no conversation id")
	}
	c.remember(c.conversations, event.ConversationID, out.Conversation.ID)
	return nil
}

// RecordQuery implements conversation.LogSink.
func (c *Client) RecordQuery(ctx context.Context, record conversation.QueryRecord) error {
	remoteConversation, ok := c.lookup(c.conversations, record.ConversationID)
	if !ok {
		return fmt.Errorf("conversation %s was never started on the backend", record.ConversationID)
	}
	body, err := c.do(ctx, http.MethodPost, "/chat/answer", answerPayload{
		ConversationID: remoteConversation,
		Question:       record.Question,
		Tag:            record.Tag,
		Response:       record.Response,
		ForStaff:       record.ForStaff,
	})
	if err != nil {
		return err
	}
	var out idEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	if out.Query == nil || len(out.Query.ID) == 0 {
		return errors.New("backend returned no query id")
	}
	c.remember(c.queries, record.QueryID, out.Query.ID)
	return nil
}

// ResolveQuery implements conversation.LogSink.
func (c *Client) ResolveQuery(ctx context.Context, resolution conversation.Resolution) error {
	remoteConversation, ok := c.lookup(c.conversations, resolution.ConversationID)
	if !ok {
		return fmt.Errorf("conversation %s was never started on the backend", resolution.ConversationID)
	}
	remoteQuery, ok := c.lookup(c.queries, resolution.QueryID)
	if !ok {
		return fmt.Errorf("query %s was never recorded on the backend", resolution.QueryID)
	}
	_, err := c.do(ctx, http.MethodPut, "/chat/resolve", resolvePayload{
		ConversationID: remoteConversation,
		QueryID:        remoteQuery,
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.queries, resolution.QueryID)
	c.mu.Unlock()
	return nil
}

func (c *Client) remember(ids map[string]remoteID, local string, remote json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)
	ids[local] = remoteID{id: remote, expires: now.Add(c.cfg.MappingTTL)}
}

func (c *Client) lookup(ids map[string]remoteID, local string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := ids[local]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(ids, local)
		return nil, false
	}
	return entry.id, true
}

// sweepLocked drops expired mappings, at most once per quarter TTL.
func (c *Client) sweepLocked(now time.Time) {
	if now.Before(c.nextSweep) {
		return
	}
	c.nextSweep = now.Add(c.cfg.MappingTTL / 4)
	for _, ids := range []map[string]remoteID{c.conversations, c.queries} {
		for local, entry := range ids {
			if !now.Before(entry.expires) {
				delete(ids, local)
			}
		}
	}
}

// do sends an authenticated request, logging in first and once more on 401.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.currentToken(ctx, false)
	if err != nil {
		return nil, err
	}
	body, err := c.send(ctx, method, path, payload, token)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		c.logger.Info("backend token rejected, logging in again", "path", path)
		if token, err = c.currentToken(ctx, true); err != nil {
			return nil, err
		}
		return c.send(ctx, method, path, payload, token)
	}
	return body, err
}

func (c *Client) currentToken(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !refresh {
		return c.token, nil
	}
	body, err := c.send(ctx, http.MethodPost, "/login", map[string]string{"email": c.cfg.Email, "password": c.cfg.Password}, "")
	if err != nil {
		return "", fmt.Errorf("backend login: %w", err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("backend login returned no token")
	}
	c.token = out.Token
	return c.token, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any, token string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return body, nil
}

func orNotApplicable(v string) string {
	if v == "" {
		return notApplicable
	}
	return v
}

var _ conversation.LogSink = (*Client)(nil)
