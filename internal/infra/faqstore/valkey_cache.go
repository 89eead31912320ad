package faqstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyEmbeddingCache stores embeddings as JSON arrays under prefixed keys.
type ValkeyEmbeddingCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyEmbeddingCache constructs the cache. A zero ttl keeps entries forever.
func NewValkeyEmbeddingCache(client valkey.Client, prefix string, ttl time.Duration) *ValkeyEmbeddingCache {
	if prefix == "" {
		prefix = "faq"
	}
	return &ValkeyEmbeddingCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ValkeyEmbeddingCache) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.key(key)
	}
	arr, err := c.client.Do(ctx, c.client.B().Mget().Key(full...).Build()).ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make(map[string][]float32, len(keys))
	for i, msg := range arr {
		if i >= len(keys) {
			break
		}
		payload, err := msg.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(payload), &vec); err != nil {
			return nil, fmt.Errorf("decode cached embedding %s: %w", keys[i], err)
		}
		out[keys[i]] = vec
	}
	return out, nil
}

func (c *ValkeyEmbeddingCache) SetMany(ctx context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	cmds := make(valkey.Commands, 0, len(vectors))
	for key, vec := range vectors {
		payload, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		builder := c.client.B().Set().Key(c.key(key)).Value(string(payload))
		if c.ttl > 0 {
			ttl := c.ttl
			if ttl < time.Second {
				ttl = time.Second
			}
			cmds = append(cmds, builder.Ex(ttl).Build())
		} else {
			cmds = append(cmds, builder.Build())
		}
	}
	for _, resp := range c.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (c *ValkeyEmbeddingCache) key(key string) string {
	return c.prefix + ":" + key
}
