package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
)

// ValkeyStore keeps sessions as JSON strings with a TTL.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs the store.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "faq"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Save(ctx context.Context, session conversation.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.key(session.ID)).Value(string(payload))
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		return s.client.Do(ctx, builder.Ex(ttl).Build()).Error()
	}
	return s.client.Do(ctx, builder.Build()).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (conversation.Session, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return conversation.Session{}, false, nil
		}
		return conversation.Session{}, false, err
	}
	var session conversation.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return conversation.Session{}, false, err
	}
	return session, true, nil
}

func (s *ValkeyStore) key(id string) string {
	return s.prefix + ":session:" + id
}

var _ conversation.SessionStore = (*ValkeyStore)(nil)
