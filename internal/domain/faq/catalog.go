package faq

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
	"github.com/yanqian/faq-chatbot/pkg/metrics"
)

// KnowledgeBase bundles one audience's dataset with its index. It is shared read-only.
type KnowledgeBase struct {
	Audience    Audience
	Entries     []Entry
	Index       *Index
	Fingerprint uint64
	BuiltAt     time.Time

	byTag map[string]int
}

// NewKnowledgeBase builds the index for entries and returns the bundle.
func NewKnowledgeBase(ctx context.Context, audience Audience, entries []Entry, embedder Embedder) (*KnowledgeBase, error) {
	idx, err := BuildIndex(ctx, entries, embedder)
	if err != nil {
		return nil, err
	}
	kb := &KnowledgeBase{
		Audience:    audience,
		Entries:     cloneEntries(entries),
		Index:       idx,
		Fingerprint: Fingerprint(entries),
		BuiltAt:     time.Now().UTC(),
		byTag:       make(map[string]int, len(entries)),
	}
	for i, entry := range kb.Entries {
		kb.byTag[entry.Tag] = i
	}
	return kb, nil
}

// Entry looks up the dataset entry for a tag.
func (kb *KnowledgeBase) Entry(tag string) (Entry, bool) {
	i, ok := kb.byTag[tag]
	if !ok {
		return Entry{}, false
	}
	return kb.Entries[i], true
}

// Fingerprint hashes the dataset content so unchanged datasets are not re-embedded.
func Fingerprint(entries []Entry) uint64 {
	digest := xxhash.New()
	for _, entry := range entries {
		_, _ = digest.WriteString(entry.Tag)
		_, _ = digest.Write([]byte{0x1d})
		for _, p := range entry.Patterns {
			_, _ = digest.WriteString(p)
			_, _ = digest.Write([]byte{0x1f})
		}
		_, _ = digest.Write([]byte{0x1e})
		for _, r := range entry.Responses {
			_, _ = digest.WriteString(r)
			_, _ = digest.Write([]byte{0x1f})
		}
		_, _ = digest.Write([]byte{0x1c})
	}
	return digest.Sum64()
}

// refreshTimeout bounds one shared dataset load and index build.
const refreshTimeout = 2 * time.Minute

// Catalog memoizes one knowledge base per audience. A knowledge base is rebuilt only when the
// source content fingerprint changes or the audience is invalidated.
type Catalog struct {
	source   Source
	embedder Embedder
	logger   *slog.Logger

	mu    sync.RWMutex
	bases map[Audience]*KnowledgeBase
	group singleflight.Group
}

// NewCatalog constructs an empty catalog.
func NewCatalog(source Source, embedder Embedder, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source:   source,
		embedder: embedder,
		logger:   logger.With("component", "faq.catalog"),
		bases:    make(map[Audience]*KnowledgeBase),
	}
}

// Get returns the cached knowledge base, loading it on first use.
func (c *Catalog) Get(ctx context.Context, audience Audience) (*KnowledgeBase, error) {
	c.mu.RLock()
	kb, ok := c.bases[audience]
	c.mu.RUnlock()
	if ok {
		return kb, nil
	}
	kb, _, err := c.Refresh(ctx, audience)
	return kb, err
}

type refreshed struct {
	kb      *KnowledgeBase
	rebuilt bool
}

// Refresh reloads the dataset and rebuilds the index if its content changed.
// The boolean reports whether a rebuild happened. Concurrent callers share one
// load, which runs detached from any single caller and is bounded by refreshTimeout.
func (c *Catalog) Refresh(ctx context.Context, audience Audience) (*KnowledgeBase, bool, error) {
	ch := c.group.DoChan(string(audience), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.rebuild(loadCtx, audience)
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := res.Val.(refreshed)
		return out.kb, out.rebuilt, nil
	}
}

func (c *Catalog) rebuild(ctx context.Context, audience Audience) (refreshed, error) {
	entries, err := c.source.Load(ctx, audience)
	if err != nil {
		if apperrors.IsCode(err, CodeMalformedEntry, CodeEmptyIndex) {
			return refreshed{}, err
		}
		return refreshed{}, apperrors.Wrap(CodeSourceUnavailable, "load faq dataset", err)
	}
	if len(entries) == 0 {
		return refreshed{}, emptyIndexError()
	}
	fingerprint := Fingerprint(entries)

	c.mu.RLock()
	current, ok := c.bases[audience]
	c.mu.RUnlock()
	if ok && current.Fingerprint == fingerprint {
		return refreshed{kb: current}, nil
	}

	started := time.Now()
	kb, err := NewKnowledgeBase(ctx, audience, entries, c.embedder)
	metrics.ObserveIndexBuild(string(audience), time.Since(started), err)
	if err != nil {
		return refreshed{}, err
	}
	for _, collision := range kb.Index.Collisions() {
		c.logger.Warn("faq pattern claimed by multiple tags", "audience", audience, "pattern", collision.Pattern, "previous", collision.Previous, "winner", collision.Winner)
	}

	c.mu.Lock()
	c.bases[audience] = kb
	c.mu.Unlock()
	c.logger.Info("faq index built", "audience", audience, "entries", len(kb.Entries), "patterns", kb.Index.Len(), "dims", kb.Index.Dimensions(), "fingerprint", formatFingerprint(fingerprint))
	return refreshed{kb: kb, rebuilt: true}, nil
}

// Invalidate drops the cached knowledge base so the next Get reloads it.
func (c *Catalog) Invalidate(audience Audience) {
	c.mu.Lock()
	delete(c.bases, audience)
	c.mu.Unlock()
	c.logger.Info("faq index invalidated", "audience", audience)
}

func formatFingerprint(v uint64) string {
	return strconv.FormatUint(v, 16)
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = Entry{
			Tag:       entry.Tag,
			Patterns:  append([]string(nil), entry.Patterns...),
			Responses: append([]string(nil), entry.Responses...),
		}
	}
	return out
}
