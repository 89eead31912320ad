package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	FAQ          FAQConfig          `yaml:"faq"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Conversation ConversationConfig `yaml:"conversation"`
	Backend      BackendConfig      `yaml:"backend"`
	Valkey       ValkeyConfig       `yaml:"valkey"`
	Postgres     PostgresConfig     `yaml:"postgres"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries of the routes the router marks
// as safe to repeat. Chat routes are never retried.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// FAQ dataset sources.
const (
	SourceFile        = "file"
	SourceBackend     = "backend"
	SourceObjectStore = "objectstore"
	SourcePostgres    = "postgres"
)

// FAQConfig controls dataset loading and answer selection.
type FAQConfig struct {
	Source              string            `yaml:"source"`
	File                string            `yaml:"file"`
	Watch               bool              `yaml:"watch"`
	WatchDebounce       time.Duration     `yaml:"watchDebounce"`
	SimilarityThreshold float64           `yaml:"similarityThreshold"`
	FallbackAnswer      string            `yaml:"fallbackAnswer"`
	UnavailableAnswer   string            `yaml:"unavailableAnswer"`
	TopRecommendations  int               `yaml:"topRecommendations"`
	TrendingTTL         time.Duration     `yaml:"trendingTtl"`
	ObjectStore         ObjectStoreConfig `yaml:"objectStore"`
}

// ObjectStoreConfig locates datasets in an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// Embedding providers and caches.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"

	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheValkey   = "valkey"
	CachePostgres = "postgres"
)

// EmbeddingConfig selects and tunes the embedding service.
type EmbeddingConfig struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	Dimensions     int           `yaml:"dimensions"`
	MaxBatchTokens int           `yaml:"maxBatchTokens"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	Backoff        time.Duration `yaml:"backoff"`
	Cache          string        `yaml:"cache"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
}

// Conversation log sinks and queues.
const (
	SinkMemory   = "memory"
	SinkBackend  = "backend"
	SinkPostgres = "postgres"

	QueueImmediate = "immediate"
	QueueValkey    = "valkey"
)

// ConversationConfig controls sessions and conversation logging.
type ConversationConfig struct {
	TokenSecret       string        `yaml:"tokenSecret"`
	SessionTTL        time.Duration `yaml:"sessionTtl"`
	StaffPasswordHash string        `yaml:"staffPasswordHash"`
	EmailDomains      []string      `yaml:"emailDomains"`
	Programs          []string      `yaml:"programs"`
	LogSink           string        `yaml:"logSink"`
	Queue             string        `yaml:"queue"`
	QueueKey          string        `yaml:"queueKey"`
	JobTimeout        time.Duration `yaml:"jobTimeout"`
}

// BackendConfig points at the FYEO backend REST API.
type BackendConfig struct {
	BaseURL  string        `yaml:"baseUrl"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ValkeyConfig contains connection information for Valkey/Redis.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from .env, a YAML file and environment variables, in that order.
func Load() (*Config, error) {
	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates unset environment variables from path, or ./.env when path is empty.
func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	envList("HTTP_ALLOWED_ORIGINS", &cfg.HTTP.AllowedOrigins)
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	envInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	envDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	envString("FAQ_SOURCE", &cfg.FAQ.Source)
	envString("FAQ_FILE", &cfg.FAQ.File)
	envBool("FAQ_WATCH", &cfg.FAQ.Watch)
	envFloat("FAQ_SIMILARITY_THRESHOLD", &cfg.FAQ.SimilarityThreshold)
	envString("FAQ_FALLBACK_ANSWER", &cfg.FAQ.FallbackAnswer)
	envInt("FAQ_RECOMMENDATIONS", &cfg.FAQ.TopRecommendations)
	envDuration("FAQ_TRENDING_TTL", &cfg.FAQ.TrendingTTL)
	envString("FAQ_OBJECTSTORE_ENDPOINT", &cfg.FAQ.ObjectStore.Endpoint)
	envString("FAQ_OBJECTSTORE_ACCESS_KEY", &cfg.FAQ.ObjectStore.AccessKey)
	envString("FAQ_OBJECTSTORE_SECRET_KEY", &cfg.FAQ.ObjectStore.SecretKey)
	envString("FAQ_OBJECTSTORE_BUCKET", &cfg.FAQ.ObjectStore.Bucket)
	envString("FAQ_OBJECTSTORE_PREFIX", &cfg.FAQ.ObjectStore.Prefix)

	envString("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	envString("EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	envString("LLM_API_KEY", &cfg.Embedding.APIKey)
	envString("EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	envString("EMBEDDING_MODEL", &cfg.Embedding.Model)
	envDuration("EMBEDDING_TIMEOUT", &cfg.Embedding.Timeout)
	envInt("EMBEDDING_MAX_ATTEMPTS", &cfg.Embedding.MaxAttempts)
	envString("EMBEDDING_CACHE", &cfg.Embedding.Cache)

	envString("SESSION_TOKEN_SECRET", &cfg.Conversation.TokenSecret)
	envDuration("SESSION_TTL", &cfg.Conversation.SessionTTL)
	envString("STAFF_PASSWORD_HASH", &cfg.Conversation.StaffPasswordHash)
	envString("CONVERSATION_LOG_SINK", &cfg.Conversation.LogSink)
	envString("CONVERSATION_QUEUE", &cfg.Conversation.Queue)

	envString("BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	envString("BACKEND_EMAIL", &cfg.Backend.Email)
	envString("BACKEND_PASSWORD", &cfg.Backend.Password)

	envBool("VALKEY_ENABLED", &cfg.Valkey.Enabled)
	envString("VALKEY_ADDR", &cfg.Valkey.Addr)
	envString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envList(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		FAQ: FAQConfig{
			Source:              SourceFile,
			File:                "configs/faq.yaml",
			Watch:               true,
			WatchDebounce:       250 * time.Millisecond,
			SimilarityThreshold: 0.7,
			TopRecommendations:  10,
			TrendingTTL:         7 * 24 * time.Hour,
			ObjectStore: ObjectStoreConfig{
				Prefix: "faq",
			},
		},
		Embedding: EmbeddingConfig{
			Provider:       ProviderLocal,
			Model:          "text-embedding-3-small",
			Dimensions:     256,
			MaxBatchTokens: 200_000,
			Timeout:        10 * time.Second,
			MaxAttempts:    3,
			Backoff:        200 * time.Millisecond,
			Cache:          CacheMemory,
		},
		Conversation: ConversationConfig{
			SessionTTL: 2 * time.Hour,
			LogSink:    SinkMemory,
			Queue:      QueueImmediate,
			QueueKey:   "faq:conversation-log",
			JobTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Valkey: ValkeyConfig{
			Prefix: "faq",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}

	// scores are dot products of unit vectors
	if c.FAQ.SimilarityThreshold < -1 || c.FAQ.SimilarityThreshold > 1 {
		return errors.New("faq.similarityThreshold must be within [-1, 1]")
	}
	if c.FAQ.TopRecommendations < 0 {
		return errors.New("faq.topRecommendations cannot be negative")
	}
	switch c.FAQ.Source {
	case SourceFile:
		if strings.TrimSpace(c.FAQ.File) == "" {
			return errors.New("faq.file cannot be empty when faq.source is file")
		}
	case SourceBackend:
		if strings.TrimSpace(c.Backend.BaseURL) == "" {
			return errors.New("backend.baseUrl cannot be empty when faq.source is backend")
		}
	case SourceObjectStore:
		if strings.TrimSpace(c.FAQ.ObjectStore.Endpoint) == "" || strings.TrimSpace(c.FAQ.ObjectStore.Bucket) == "" {
			return errors.New("faq.objectStore endpoint and bucket are required when faq.source is objectstore")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("postgres.dsn cannot be empty when faq.source is postgres")
		}
	default:
		return fmt.Errorf("unknown faq.source %q", c.FAQ.Source)
	}

	switch c.Embedding.Provider {
	case ProviderLocal:
		if c.Embedding.Dimensions <= 0 {
			return errors.New("embedding.dimensions must be positive")
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.Embedding.APIKey) == "" {
			return errors.New("embedding.apiKey cannot be empty when embedding.provider is openai")
		}
		if strings.TrimSpace(c.Embedding.Model) == "" {
			return errors.New("embedding.model cannot be empty")
		}
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch c.Embedding.Cache {
	case CacheNone, CacheMemory:
	case CacheValkey:
		if !c.Valkey.Enabled {
			return errors.New("embedding.cache valkey requires valkey.enabled")
		}
	case CachePostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("embedding.cache postgres requires postgres.dsn")
		}
	default:
		return fmt.Errorf("unknown embedding.cache %q", c.Embedding.Cache)
	}

	if len(c.Conversation.TokenSecret) < 16 {
		return errors.New("conversation.tokenSecret must be at least 16 characters")
	}
	if c.Conversation.SessionTTL <= 0 {
		return errors.New("conversation.sessionTtl must be positive")
	}
	switch c.Conversation.LogSink {
	case SinkMemory:
	case SinkBackend:
		if strings.TrimSpace(c.Backend.BaseURL) == "" {
			return errors.New("backend.baseUrl cannot be empty when conversation.logSink is backend")
		}
	case SinkPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("postgres.dsn cannot be empty when conversation.logSink is postgres")
		}
	default:
		return fmt.Errorf("unknown conversation.logSink %q", c.Conversation.LogSink)
	}
	switch c.Conversation.Queue {
	case QueueImmediate:
	case QueueValkey:
		if !c.Valkey.Enabled {
			return errors.New("conversation.queue valkey requires valkey.enabled")
		}
	default:
		return fmt.Errorf("unknown conversation.queue %q", c.Conversation.Queue)
	}

	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	return nil
}
