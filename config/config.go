// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Extraction strategy names accepted by Config.ExtractionStrategy.
const (
	StrategyGlobal  = "global"
	StrategySummary = "summary"
)

// Config carries all runtime settings. Every field has a default so a
// bare environment still yields a usable in-memory deployment.
type Config struct {
	// Server
	Addr string

	// Model access
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	TopK int

	// Ingestion
	EmbedBatchSize     int
	ExtractionStrategy string
	GraphTextLimit     int
	SummaryThreshold   int
	SummarySampleSize  int

	// Stores. Empty URLs select the in-memory implementations.
	PostgresURL  string
	FalkorDBURL  string
	RedisCache   string
	RegistryPath string
	BlobDir      string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; missing files are not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:               getEnv("GRAPHRAG_ADDR", ":8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		ChatModel:          getEnv("GRAPHRAG_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:     getEnv("GRAPHRAG_EMBEDDING_MODEL", "text-embedding-3-small"),
		ChunkSize:          getEnvInt("GRAPHRAG_CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvInt("GRAPHRAG_CHUNK_OVERLAP", 100),
		TopK:               getEnvInt("GRAPHRAG_TOP_K", 4),
		EmbedBatchSize:     getEnvInt("GRAPHRAG_EMBED_BATCH_SIZE", 50),
		ExtractionStrategy: getEnv("GRAPHRAG_EXTRACTION_STRATEGY", StrategyGlobal),
		GraphTextLimit:     getEnvInt("GRAPHRAG_GRAPH_TEXT_LIMIT", 100000),
		SummaryThreshold:   getEnvInt("GRAPHRAG_SUMMARY_THRESHOLD", 50000),
		SummarySampleSize:  getEnvInt("GRAPHRAG_SUMMARY_SAMPLE_SIZE", 20000),
		PostgresURL:        getEnv("GRAPHRAG_POSTGRES_URL", ""),
		FalkorDBURL:        getEnv("GRAPHRAG_FALKORDB_URL", ""),
		RedisCache:         getEnv("GRAPHRAG_REDIS_CACHE", ""),
		RegistryPath:       getEnv("GRAPHRAG_REGISTRY_PATH", "graphrag.db"),
		BlobDir:            getEnv("GRAPHRAG_BLOB_DIR", "data/blobs"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would break pipeline invariants.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size), got %d with chunk size %d",
			c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed batch size must be positive, got %d", c.EmbedBatchSize)
	}
	switch c.ExtractionStrategy {
	case StrategyGlobal, StrategySummary:
	default:
		return fmt.Errorf("unknown extraction strategy %q", c.ExtractionStrategy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
