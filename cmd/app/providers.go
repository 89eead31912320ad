package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-chatbot/internal/bootstrap"
	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/backend"
	"github.com/yanqian/faq-chatbot/internal/infra/config"
	"github.com/yanqian/faq-chatbot/internal/infra/convlog"
	"github.com/yanqian/faq-chatbot/internal/infra/embedder"
	"github.com/yanqian/faq-chatbot/internal/infra/faqsource"
	"github.com/yanqian/faq-chatbot/internal/infra/faqstore"
	"github.com/yanqian/faq-chatbot/internal/infra/llm/openai"
	"github.com/yanqian/faq-chatbot/internal/infra/queue"
	"github.com/yanqian/faq-chatbot/internal/infra/sessionstore"
	"github.com/yanqian/faq-chatbot/internal/infra/stemmer"
)

func provideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		SimilarityThreshold: faq.Threshold(cfg.FAQ.SimilarityThreshold),
		FallbackAnswer:      cfg.FAQ.FallbackAnswer,
		UnavailableAnswer:   cfg.FAQ.UnavailableAnswer,
		TopRecommendations:  cfg.FAQ.TopRecommendations,
		TrendingTTL:         cfg.FAQ.TrendingTTL,
	}
}

func provideConversationConfig(cfg *config.Config) conversation.Config {
	return conversation.Config{
		TokenSecret:       cfg.Conversation.TokenSecret,
		SessionTTL:        cfg.Conversation.SessionTTL,
		StaffPasswordHash: cfg.Conversation.StaffPasswordHash,
		EmailDomains:      cfg.Conversation.EmailDomains,
		Programs:          cfg.Conversation.Programs,
	}
}

// provideValkeyClient returns nil when valkey is disabled or unreachable; consumers fall back to memory.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// providePostgresPool returns nil when no DSN is configured or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres enabled")
	return pool
}

// provideBackendClient returns nil when no backend is configured.
func provideBackendClient(cfg *config.Config, logger *slog.Logger) (*backend.Client, error) {
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return nil, nil
	}
	return backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Email:      cfg.Backend.Email,
		Password:   cfg.Backend.Password,
		Timeout:    cfg.Backend.Timeout,
		MappingTTL: cfg.Conversation.SessionTTL,
	}, logger)
}

func provideStemmer() faq.Stemmer {
	return stemmer.NewPorter2()
}

func provideValidator(s faq.Stemmer) *faq.Validator {
	return faq.NewValidator(s)
}

func providePicker() faq.Picker {
	return rand.IntN
}

// provideEmbedder assembles cache(retry(remote)) or the offline local embedder.
func provideEmbedder(cfg *config.Config, client valkey.Client, pool *pgxpool.Pool, logger *slog.Logger) (faq.Embedder, error) {
	var (
		base  faq.Embedder
		model string
	)
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		api, err := openai.NewClient(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Timeout)
		if err != nil {
			return nil, err
		}
		remote := embedder.NewOpenAIEmbedder(api, cfg.Embedding.Model, cfg.Embedding.MaxBatchTokens, logger)
		base = embedder.NewResilient(remote, embedder.RetryPolicy{
			Timeout:     cfg.Embedding.Timeout,
			MaxAttempts: cfg.Embedding.MaxAttempts,
			Backoff:     cfg.Embedding.Backoff,
		}, logger)
		model = remote.Model()
	default:
		logger.Info("using local embedder", "dims", cfg.Embedding.Dimensions)
		return embedder.NewLocalEmbedder(cfg.Embedding.Dimensions), nil
	}

	var cache embedder.Cache
	switch cfg.Embedding.Cache {
	case config.CacheValkey:
		if client != nil {
			cache = faqstore.NewValkeyEmbeddingCache(client, cfg.Valkey.Prefix, cfg.Embedding.CacheTTL)
		}
	case config.CachePostgres:
		if pool != nil {
			cache = faqstore.NewPostgresEmbeddingCache(pool)
		}
	case config.CacheNone:
		return base, nil
	}
	if cache == nil {
		cache = faqstore.NewMemoryEmbeddingCache()
	}
	return embedder.NewCached(base, cache, model, logger), nil
}

func provideFileSource(cfg *config.Config, logger *slog.Logger) *faqsource.FileSource {
	if cfg.FAQ.Source != config.SourceFile {
		return nil
	}
	return faqsource.NewFileSource(cfg.FAQ.File, logger)
}

func provideFAQSource(cfg *config.Config, file *faqsource.FileSource, client *backend.Client, pool *pgxpool.Pool, logger *slog.Logger) (faq.Source, error) {
	switch cfg.FAQ.Source {
	case config.SourceBackend:
		return faqsource.NewBackendSource(client), nil
	case config.SourceObjectStore:
		store := cfg.FAQ.ObjectStore
		return faqsource.NewObjectStoreSource(faqsource.ObjectStoreConfig{
			Endpoint:  store.Endpoint,
			AccessKey: store.AccessKey,
			SecretKey: store.SecretKey,
			Bucket:    store.Bucket,
			Region:    store.Region,
			Prefix:    store.Prefix,
		}, logger)
	case config.SourcePostgres:
		if pool == nil {
			return nil, errPostgresUnavailable
		}
		return faqsource.NewPostgresSource(pool), nil
	default:
		return file, nil
	}
}

func provideDatasetWatcher(cfg *config.Config, file *faqsource.FileSource) bootstrap.DatasetWatcher {
	if file == nil || !cfg.FAQ.Watch {
		return nil
	}
	return file
}

func provideFAQStore(cfg *config.Config, client valkey.Client, logger *slog.Logger) faq.Store {
	if client != nil {
		logger.Info("faq valkey store enabled")
		return faqstore.NewValkeyStore(client, cfg.Valkey.Prefix, cfg.FAQ.TrendingTTL)
	}
	return faqstore.NewMemoryStore()
}

func provideSessionStore(cfg *config.Config, client valkey.Client) conversation.SessionStore {
	if client != nil {
		return sessionstore.NewValkeyStore(client, cfg.Valkey.Prefix)
	}
	return sessionstore.NewMemoryStore()
}

func provideLogSink(cfg *config.Config, client *backend.Client, pool *pgxpool.Pool, logger *slog.Logger) conversation.LogSink {
	switch cfg.Conversation.LogSink {
	case config.SinkBackend:
		if client != nil {
			return client
		}
	case config.SinkPostgres:
		if pool != nil {
			return convlog.NewPostgresSink(pool)
		}
	}
	if cfg.Conversation.LogSink != config.SinkMemory {
		logger.Warn("conversation log sink unavailable, logging to memory", "sink", cfg.Conversation.LogSink)
	}
	return convlog.NewMemorySink()
}

func provideAnswerer(svc faq.Service) conversation.Answerer {
	return svc
}

func provideQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) queue.Queue {
	if cfg.Conversation.Queue == config.QueueValkey && client != nil {
		return queue.NewValkeyQueue(client, cfg.Conversation.QueueKey, logger)
	}
	return queue.NewImmediateQueue(cfg.Conversation.JobTimeout, logger)
}
