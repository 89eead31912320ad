package faqstore

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// ValkeyStore keeps trending counters in a sorted set per audience.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a new store backed by Valkey. A positive ttl expires idle counters.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "faq"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) IncrementTag(ctx context.Context, audience faq.Audience, tag string) error {
	if tag == "" {
		return nil
	}
	key := s.trendingKey(audience)
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(key).Increment(1).Member(tag).Build()).Error(); err != nil {
		return err
	}
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		return s.client.Do(ctx, s.client.B().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build()).Error()
	}
	return nil
}

func (s *ValkeyStore) TopTags(ctx context.Context, audience faq.Audience, limit int) ([]faq.TrendingQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendingKey(audience)).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]faq.TrendingQuery, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, faq.TrendingQuery{Tag: member, Count: int64(score)})
	}
	return out, nil
}

func (s *ValkeyStore) trendingKey(audience faq.Audience) string {
	return fmt.Sprintf("%s:trending:%s", s.prefix, audience)
}

var _ faq.Store = (*ValkeyStore)(nil)
