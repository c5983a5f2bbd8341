// Package config loads process configuration from the environment into a
// single typed value that is threaded explicitly through every component.
// No package in this module reads os.Getenv outside of Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ChunkingConfig bounds the chunker's sliding window for one document type.
type ChunkingConfig struct {
	MinTokens    int
	TargetTokens int
	MaxTokens    int
	OverlapRatio float64
}

// OverlapTokens returns the number of tokens windows should overlap by.
func (c ChunkingConfig) OverlapTokens() int {
	n := int(float64(c.TargetTokens) * c.OverlapRatio)
	if n < 0 {
		return 0
	}
	return n
}

// DefaultScotusChunking returns the built-in Supreme Court opinion window,
// for callers (tests, one-off tooling) that don't go through Load.
func DefaultScotusChunking() ChunkingConfig {
	return ChunkingConfig{MinTokens: 500, TargetTokens: 600, MaxTokens: 800, OverlapRatio: 0.15}
}

// DefaultEOChunking returns the built-in Executive Order window.
func DefaultEOChunking() ChunkingConfig {
	return ChunkingConfig{MinTokens: 240, TargetTokens: 340, MaxTokens: 400, OverlapRatio: 0.10}
}

func (c ChunkingConfig) validate(prefix string) error {
	if c.MinTokens <= 0 || c.MinTokens > c.MaxTokens {
		return fmt.Errorf("%s: min_tokens must be in (0, max_tokens]", prefix)
	}
	if c.OverlapRatio < 0 || c.OverlapRatio >= 1 {
		return fmt.Errorf("%s: overlap_ratio must be in [0, 1)", prefix)
	}
	return nil
}

// RateLimitConfig bounds how often one HTTP adapter may call out.
type RateLimitConfig struct {
	MinDelay       time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// MCPConfig configures the MCP server's advertised identity and limits.
type MCPConfig struct {
	ServerName        string
	ServerVersion     string
	DefaultLimit      int
	MaxLimit          int
	EnableCache       bool
	LogLevel          string
	LogPath           string
	ScotusCollection  string
	EOCollection      string
}

// QdrantConfig describes how to reach the vector store.
type QdrantConfig struct {
	Host    string
	Port    int
	GRPCPort int
	APIKey  string
}

// Config is the single, immutable, process-wide configuration value.
// It is assembled once by Load and passed by reference into constructors;
// no component reads the environment on its own.
type Config struct {
	CourtListenerToken   string
	FederalRegisterToken string
	OpenAIAPIKey         string
	GoogleGeminiAPIKey   string

	OpenAIModel          string
	OpenAIEmbeddingModel string

	ProgressDBPath string
	LogPath        string
	LogLevel       string

	ScotusChunking ChunkingConfig
	EOChunking     ChunkingConfig

	CourtListenerRateLimit   RateLimitConfig
	FederalRegisterRateLimit RateLimitConfig

	Qdrant QdrantConfig
	MCP    MCPConfig

	HTTPTimeout           time.Duration
	HTTPPaginationTimeout time.Duration
}

// Load reads an optional .env file (if present, values there override
// already-set process environment variables) and then consolidates every
// recognized environment variable into a Config. Unset credentials remain
// the empty string and callers check for required values themselves; other
// unset settings fall back to built-in defaults.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{
		CourtListenerToken:   os.Getenv("COURT_LISTENER_API_TOKEN"),
		FederalRegisterToken: os.Getenv("FEDERAL_REGISTER_API_TOKEN"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		GoogleGeminiAPIKey:   os.Getenv("GOOGLE_GEMINI_API_KEY"),

		OpenAIModel:          firstNonEmpty(os.Getenv("OPENAI_MODEL"), "gpt-4o-mini"),
		OpenAIEmbeddingModel: firstNonEmpty(os.Getenv("OPENAI_EMBEDDING_MODEL"), "text-embedding-3-small"),

		ProgressDBPath: firstNonEmpty(os.Getenv("PROGRESS_DB_PATH"), "progress.db"),
		LogPath:        os.Getenv("LOG_PATH"),
		LogLevel:       firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),

		ScotusChunking: ChunkingConfig{
			MinTokens:    parseIntEnv("RAG_SCOTUS_MIN_TOKENS", 500),
			TargetTokens: parseIntEnv("RAG_SCOTUS_TARGET_TOKENS", 600),
			MaxTokens:    parseIntEnv("RAG_SCOTUS_MAX_TOKENS", 800),
			OverlapRatio: parseFloatEnv("RAG_SCOTUS_OVERLAP_RATIO", 0.15),
		},
		EOChunking: ChunkingConfig{
			MinTokens:    parseIntEnv("RAG_EO_MIN_TOKENS", 240),
			TargetTokens: parseIntEnv("RAG_EO_TARGET_TOKENS", 340),
			MaxTokens:    parseIntEnv("RAG_EO_MAX_TOKENS", 400),
			OverlapRatio: parseFloatEnv("RAG_EO_OVERLAP_RATIO", 0.10),
		},

		CourtListenerRateLimit: RateLimitConfig{
			MinDelay:       durationFromSeconds(0.1),
			MaxRetries:     5,
			InitialBackoff: time.Second,
		},
		FederalRegisterRateLimit: RateLimitConfig{
			MinDelay:       durationFromSeconds(1.1),
			MaxRetries:     5,
			InitialBackoff: time.Second,
		},

		Qdrant: QdrantConfig{
			Host:     firstNonEmpty(os.Getenv("QDRANT_HOST"), "localhost"),
			Port:     parseIntEnv("QDRANT_PORT", 6333),
			GRPCPort: parseIntEnv("QDRANT_GRPC_PORT", 6334),
			APIKey:   os.Getenv("QDRANT_API_KEY"),
		},
		MCP: MCPConfig{
			ServerName:       firstNonEmpty(os.Getenv("MCP_SERVER_NAME"), "governmentreporter"),
			ServerVersion:    firstNonEmpty(os.Getenv("MCP_SERVER_VERSION"), "0.1.0"),
			DefaultLimit:     parseIntEnv("MCP_DEFAULT_SEARCH_LIMIT", 10),
			MaxLimit:         parseIntEnv("MCP_MAX_SEARCH_LIMIT", 50),
			EnableCache:      parseBoolEnv("MCP_ENABLE_CACHE", false),
			LogLevel:         firstNonEmpty(os.Getenv("MCP_LOG_LEVEL"), "info"),
			LogPath:          firstNonEmpty(os.Getenv("LOG_PATH"), "governmentreporter-mcp.log"),
			ScotusCollection: "supreme_court_opinions",
			EOCollection:     "executive_orders",
		},

		HTTPTimeout:           30 * time.Second,
		HTTPPaginationTimeout: 60 * time.Second,
	}

	if err := cfg.ScotusChunking.validate("RAG_SCOTUS"); err != nil {
		return Config{}, err
	}
	if err := cfg.EOChunking.validate("RAG_EO"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseFloatEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func parseBoolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
