package faqstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

func TestMemoryStoreTopTags(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, tag := range []string{"hours", "location", "hours", "email", "location", "hours"} {
		require.NoError(t, store.IncrementTag(ctx, faq.AudienceStudent, tag))
	}
	require.NoError(t, store.IncrementTag(ctx, faq.AudienceStaff, "payroll"))
	require.NoError(t, store.IncrementTag(ctx, faq.AudienceStudent, ""))

	top, err := store.TopTags(ctx, faq.AudienceStudent, 2)
	require.NoError(t, err)
	require.Equal(t, []faq.TrendingQuery{{Tag: "hours", Count: 3}, {Tag: "location", Count: 2}}, top)

	all, err := store.TopTags(ctx, faq.AudienceStudent, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	staff, err := store.TopTags(ctx, faq.AudienceStaff, 10)
	require.NoError(t, err)
	require.Equal(t, []faq.TrendingQuery{{Tag: "payroll", Count: 1}}, staff)
}

func TestMemoryEmbeddingCache(t *testing.T) {
	cache := NewMemoryEmbeddingCache()
	ctx := context.Background()

	require.NoError(t, cache.SetMany(ctx, map[string][]float32{"a": {1, 2}, "b": {3}}))
	got, err := cache.GetMany(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float32{"a": {1, 2}}, got)

	got["a"][0] = 42
	again, err := cache.GetMany(ctx, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, float32(1), again["a"][0])
	require.Equal(t, 2, cache.Len())
}
