package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/pkg/util"
)

type fakeBackend struct {
	mu       sync.Mutex
	logins   int
	expired  bool
	requests []string
	bodies   map[string]map[string]any
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.RequestURI())

	if r.URL.Path == "/login" {
		b.logins++
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + string(rune('0'+b.logins))})
		return
	}
	if b.expired && r.Header.Get("Authorization") == "Bearer tok-1" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if b.bodies == nil {
		b.bodies = make(map[string]map[string]any)
	}
	b.bodies[r.URL.Path] = body

	switch r.URL.Path {
	case "/faq":
		_, _ = w.Write([]byte(`{"FAQ":[{"tag":"hours","patterns":["when are you open"],"responses":["9 to 4"]}]}`))
	case "/chat/start":
		_, _ = w.Write([]byte(`{"conversation":{"id":41}}`))
	case "/chat/answer":
		_, _ = w.Write([]byte(`{"query":{"id":"q-remote"}}`))
	case "/chat/resolve":
		_, _ = w.Write([]byte(`{"query":{"id":"q-remote","resolved":true}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL + "/", Email: "bot@torontomu.ca", Password: "pw", Timeout: time.Second}, nil)
	require.NoError(t, err)
	return client
}

func TestFetchFAQ(t *testing.T) {
	backend := &fakeBackend{}
	client := newTestClient(t, backend)

	body, err := client.FetchFAQ(context.Background(), faq.AudienceStaff)
	require.NoError(t, err)
	require.Contains(t, string(body), `"FAQ"`)

	_, err = client.FetchFAQ(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, []string{"POST /login", "GET /faq?for_staff=true", "GET /faq"}, backend.requests)
}

func TestReauthenticatesOnceOnUnauthorized(t *testing.T) {
	backend := &fakeBackend{}
	client := newTestClient(t, backend)

	_, err := client.FetchFAQ(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)

	backend.mu.Lock()
	backend.expired = true
	backend.mu.Unlock()

	_, err = client.FetchFAQ(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, 2, backend.logins)
}

func TestConversationLoggingMapsIDs(t *testing.T) {
	backend := &fakeBackend{}
	client := newTestClient(t, backend)
	ctx := context.Background()

	require.NoError(t, client.StartConversation(ctx, conversation.ConversationStart{
		ConversationID: "local-c",
		Audience:       faq.AudienceStaff,
		FirstName:      "Ana",
		LastName:       "Ruiz",
		Email:          "ana@ryerson.ca",
	}))
	start := backend.bodies["/chat/start"]
	require.Equal(t, "None", start["student_id"])
	require.Equal(t, "None", start["program"])

	require.NoError(t, client.RecordQuery(ctx, conversation.QueryRecord{
		ConversationID: "local-c",
		QueryID:        "local-q",
		Question:       "payroll?",
		Tag:            "payroll",
		Response:       "Ask HR",
		ForStaff:       true,
	}))
	answer := backend.bodies["/chat/answer"]
	require.Equal(t, float64(41), answer["conversation_id"])
	require.Equal(t, true, answer["for_staff"])

	require.NoError(t, client.ResolveQuery(ctx, conversation.Resolution{ConversationID: "local-c", QueryID: "local-q"}))
	resolve := backend.bodies["/chat/resolve"]
	require.Equal(t, float64(41), resolve["conversation_id"])
	require.Equal(t, "q-remote", resolve["query_id"])

	require.Error(t, client.ResolveQuery(ctx, conversation.Resolution{ConversationID: "local-c", QueryID: "local-q"}))
	require.Error(t, client.RecordQuery(ctx, conversation.QueryRecord{ConversationID: "unknown"}))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
}

func TestIDMappingsExpireWithSessions(t *testing.T) {
	backend := &fakeBackend{}
	client := newTestClient(t, backend)
	clock := util.NewManualClock(time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC))
	client.now = clock.Now
	ctx := context.Background()

	require.NoError(t, client.StartConversation(ctx, conversation.ConversationStart{ConversationID: "old", FirstName: "Sam"}))
	require.NoError(t, client.RecordQuery(ctx, conversation.QueryRecord{ConversationID: "old", QueryID: "old-q"}))

	clock.Advance(client.cfg.MappingTTL)
	err := client.RecordQuery(ctx, conversation.QueryRecord{ConversationID: "old", QueryID: "late-q"})
	require.ErrorContains(t, err, "never started")

	require.NoError(t, client.StartConversation(ctx, conversation.ConversationStart{ConversationID: "new", FirstName: "Ana"}))
	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.conversations, 1)
	require.Contains(t, client.conversations, "new")
	require.Empty(t, client.queries, "unresolved queries are swept once their session is gone")
}
