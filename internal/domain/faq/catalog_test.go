package faq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

func TestFingerprintTracksContent(t *testing.T) {
	base := locationEntries()
	require.Equal(t, Fingerprint(base), Fingerprint(locationEntries()))

	changed := locationEntries()
	changed[1].Responses = []string{"We are open 9 to 4"}
	require.NotEqual(t, Fingerprint(base), Fingerprint(changed))

	moved := []Entry{{Tag: "ab", Patterns: []string{"c"}, Responses: []string{"d"}}}
	shifted := []Entry{{Tag: "a", Patterns: []string{"bc"}, Responses: []string{"d"}}}
	require.NotEqual(t, Fingerprint(moved), Fingerprint(shifted))
}

func TestCatalogMemoizesPerAudience(t *testing.T) {
	source := &staticSource{entries: map[Audience][]Entry{
		AudienceStudent: locationEntries(),
		AudienceStaff:   {{Tag: "staff", Patterns: []string{"staff portal"}, Responses: []string{"Use the staff portal"}}},
	}}
	embedder := &vectorEmbedder{fallback: []float32{1, 0, 0}}
	catalog := NewCatalog(source, embedder, newTestLogger())

	student, err := catalog.Get(context.Background(), AudienceStudent)
	require.NoError(t, err)
	again, err := catalog.Get(context.Background(), AudienceStudent)
	require.NoError(t, err)
	require.Same(t, student, again)
	require.Equal(t, 1, embedder.callCount())

	staff, err := catalog.Get(context.Background(), AudienceStaff)
	require.NoError(t, err)
	require.NotSame(t, student, staff)
	_, ok := staff.Entry("staff")
	require.True(t, ok)
	_, ok = staff.Entry("location")
	require.False(t, ok)
}

func TestCatalogRefreshRebuildsOnlyOnChange(t *testing.T) {
	source := &staticSource{entries: map[Audience][]Entry{AudienceStudent: locationEntries()}}
	embedder := &vectorEmbedder{fallback: []float32{1, 0}}
	catalog := NewCatalog(source, embedder, newTestLogger())

	first, rebuilt, err := catalog.Refresh(context.Background(), AudienceStudent)
	require.NoError(t, err)
	require.True(t, rebuilt)

	same, rebuilt, err := catalog.Refresh(context.Background(), AudienceStudent)
	require.NoError(t, err)
	require.False(t, rebuilt)
	require.Same(t, first, same)
	require.Equal(t, 1, embedder.callCount())

	updated := locationEntries()
	updated = append(updated, Entry{Tag: "email", Patterns: []string{"email address"}, Responses: []string{"firstyeareng@torontomu.ca"}})
	source.set(AudienceStudent, updated)

	next, rebuilt, err := catalog.Refresh(context.Background(), AudienceStudent)
	require.NoError(t, err)
	require.True(t, rebuilt)
	require.Equal(t, 4, next.Index.Len())
	require.Equal(t, 2, embedder.callCount())
}

func TestCatalogInvalidate(t *testing.T) {
	source := &staticSource{entries: map[Audience][]Entry{AudienceStudent: locationEntries()}}
	embedder := &vectorEmbedder{fallback: []float32{1, 0}}
	catalog := NewCatalog(source, embedder, newTestLogger())

	_, err := catalog.Get(context.Background(), AudienceStudent)
	require.NoError(t, err)
	catalog.Invalidate(AudienceStudent)
	_, err = catalog.Get(context.Background(), AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, 2, embedder.callCount())
}

func TestCatalogErrors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		source := &staticSource{err: errors.New("disk gone")}
		catalog := NewCatalog(source, &vectorEmbedder{}, newTestLogger())
		_, err := catalog.Get(context.Background(), AudienceStudent)
		require.True(t, apperrors.IsCode(err, CodeSourceUnavailable))
	})

	t.Run("empty dataset", func(t *testing.T) {
		source := &staticSource{entries: map[Audience][]Entry{}}
		catalog := NewCatalog(source, &vectorEmbedder{}, newTestLogger())
		_, err := catalog.Get(context.Background(), AudienceStudent)
		require.ErrorIs(t, err, ErrEmptyIndex)
	})

	t.Run("malformed entry keeps its code", func(t *testing.T) {
		source := &staticSource{err: malformedEntry(3, "x", "missing responses")}
		catalog := NewCatalog(source, &vectorEmbedder{}, newTestLogger())
		_, err := catalog.Get(context.Background(), AudienceStudent)
		require.True(t, apperrors.IsCode(err, CodeMalformedEntry))
	})
}

func TestCatalogConcurrentGetBuildsOnce(t *testing.T) {
	source := &staticSource{entries: map[Audience][]Entry{AudienceStudent: locationEntries()}}
	embedder := &vectorEmbedder{fallback: []float32{1, 0}}
	catalog := NewCatalog(source, embedder, newTestLogger())

	var wg sync.WaitGroup
	bases := make([]*KnowledgeBase, 8)
	errs := make([]error, len(bases))
	for i := range bases {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bases[i], errs[i] = catalog.Get(context.Background(), AudienceStudent)
		}(i)
	}
	wg.Wait()

	for i, kb := range bases {
		require.NoError(t, errs[i])
		require.Equal(t, bases[0].Fingerprint, kb.Fingerprint)
	}
	require.LessOrEqual(t, embedder.callCount(), len(bases))
}

type gatedSource struct {
	loads   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSource) Load(ctx context.Context, _ Audience) ([]Entry, error) {
	s.loads.Add(1)
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return locationEntries(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCatalogRefreshSurvivesFirstCallerCancelling(t *testing.T) {
	source := &gatedSource{entered: make(chan struct{}, 2), release: make(chan struct{})}
	catalog := NewCatalog(source, &vectorEmbedder{vectors: locationVectors()}, newTestLogger())

	requestCtx, cancelRequest := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, _, err := catalog.Refresh(requestCtx, AudienceStudent)
		first <- err
	}()
	<-source.entered

	type result struct {
		kb  *KnowledgeBase
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		kb, _, err := catalog.Refresh(context.Background(), AudienceStudent)
		waiter <- result{kb: kb, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelRequest()
	require.ErrorIs(t, <-first, context.Canceled)

	close(source.release)
	got := <-waiter
	require.NoError(t, got.err)
	require.Equal(t, Fingerprint(locationEntries()), got.kb.Fingerprint)
	require.Equal(t, int32(1), source.loads.Load(), "the waiter joined the in-flight load")
}
