// Package config loads and validates process-wide configuration from
// environment variables. A .env file in the working directory is read
// first when present; real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/chattydevs/core/core"
)

// Store backend and embedder provider selectors.
const (
	StoreQdrant = "qdrant"
	StoreBadger = "badger"

	EmbedderGemini = "gemini"
	EmbedderOpenAI = "openai"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppEnv     string
	ListenAddr string

	// InternalToken authenticates service-to-service calls on the
	// ingest endpoints.
	InternalToken string

	CrawlTimeout   time.Duration
	CrawlMaxPages  int
	CrawlUserAgent string

	ChunkTokenSize  int
	MinChunkCharLen int
	UpsertBatchSize int
	ScrollLimit     int

	StoreBackend string
	StorePath    string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantTimeout    time.Duration

	Embedder         string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiTimeout    time.Duration
	OpenAIBaseURL    string
	OpenAIEmbedModel string
}

// Load reads configuration from the environment, applying defaults for
// everything optional. Call Validate before using the result.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:        getString("APP_ENV", "development"),
		ListenAddr:    getString("LISTEN_ADDR", ":8080"),
		InternalToken: os.Getenv("INTERNAL_SERVICE_TOKEN"),

		CrawlTimeout:   getDuration("CRAWL_TIMEOUT", 10*time.Second),
		CrawlMaxPages:  getInt("CRAWL_MAX_PAGES", 20),
		CrawlUserAgent: getString("CRAWL_USER_AGENT", "ChattyDevsBot/1.0 (+https://chattydevs.com)"),

		ChunkTokenSize:  getInt("CHUNK_TOKEN_SIZE", 300),
		MinChunkCharLen: getInt("MIN_CHUNK_CHAR_LENGTH", 50),
		UpsertBatchSize: getInt("QDRANT_UPSERT_BATCH_SIZE", 50),
		ScrollLimit:     getInt("QDRANT_SCROLL_LIMIT", 100),

		StoreBackend: getString("STORE_BACKEND", StoreQdrant),
		StorePath:    os.Getenv("STORE_PATH"),

		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: os.Getenv("QDRANT_COLLECTION_NAME"),
		QdrantTimeout:    getDuration("QDRANT_TIMEOUT", 30*time.Second),

		Embedder:         getString("EMBEDDER", EmbedderGemini),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getString("GEMINI_EMBED_MODEL", "models/text-embedding-004"),
		GeminiTimeout:    getDuration("GEMINI_TIMEOUT", 20*time.Second),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIEmbedModel: os.Getenv("OPENAI_EMBED_MODEL"),
	}
}

// Validate checks the settings required for the selected backends.
// Every problem is reported as core.ErrConfig; the process must not
// start on error.
func (c Config) Validate() error {
	if c.InternalToken == "" {
		return fmt.Errorf("%w: INTERNAL_SERVICE_TOKEN is required", core.ErrConfig)
	}

	switch c.StoreBackend {
	case StoreQdrant:
		if c.QdrantURL == "" {
			return fmt.Errorf("%w: QDRANT_URL is required for the qdrant backend", core.ErrConfig)
		}
		if c.QdrantCollection == "" {
			return fmt.Errorf("%w: QDRANT_COLLECTION_NAME is required for the qdrant backend", core.ErrConfig)
		}
	case StoreBadger:
		if c.StorePath == "" {
			return fmt.Errorf("%w: STORE_PATH is required for the badger backend", core.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", core.ErrConfig, c.StoreBackend)
	}

	switch c.Embedder {
	case EmbedderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for the gemini embedder", core.ErrConfig)
		}
	case EmbedderOpenAI:
		if c.OpenAIBaseURL == "" {
			return fmt.Errorf("%w: OPENAI_BASE_URL is required for the openai embedder", core.ErrConfig)
		}
		if c.OpenAIEmbedModel == "" {
			return fmt.Errorf("%w: OPENAI_EMBED_MODEL is required for the openai embedder", core.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedder %q", core.ErrConfig, c.Embedder)
	}

	if c.ChunkTokenSize < 1 {
		return fmt.Errorf("%w: CHUNK_TOKEN_SIZE must be positive", core.ErrConfig)
	}
	if c.CrawlMaxPages < 1 {
		return fmt.Errorf("%w: CRAWL_MAX_PAGES must be positive", core.ErrConfig)
	}

	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
