// Package config loads movieqa settings from the environment, an optional
// .env file, and ~/.movieqa/config.{yaml,yml,json}.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Prefix is the environment prefix for every setting. Keys whose tag names
// an original deployment variable (BACKEND_URL, AZURE_OPENAI_*) are also
// read without the prefix.
const Prefix = "MOVIEQA"

// Config is the root configuration struct.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Corpus  CorpusConfig
	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	// Provider selects the embedding provider: "openai", "ollama", or ""
	// for OpenAI when it is configured.
	Provider string
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string  `envconfig:"ADDR" default:":3000"`
	URL          string  `envconfig:"SERVER_URL" default:"http://localhost:3000"`
	DataDir      string  `envconfig:"DATA_DIR" default:"public/data"`
	RateLimitRPS float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	IPRateRPS    float64 `envconfig:"RATE_LIMIT_IP_RPS" default:"0"`
}

// BackendConfig configures the question-answering collaborator.
type BackendConfig struct {
	URL     string        `envconfig:"BACKEND_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"60s"`
}

// CorpusConfig locates the movie CSV and the embedding matrix.
type CorpusConfig struct {
	// Base is an http(s) URL or a local directory.
	Base           string `envconfig:"NEXT_PUBLIC_BASE_URL" default:"http://localhost:3000"`
	CSVPath        string `envconfig:"CSV_PATH" default:"/data/csv/IMDb_movies.csv"`
	EmbeddingsPath string `envconfig:"EMBEDDINGS_PATH" default:"/data/embeddings.json"`
	Snapshot       string `envconfig:"CORPUS_SNAPSHOT"`
	// Strict rejects rows whose value count differs from the header. The
	// IMDb dataset quotes commas inside fields, so it only loads lenient.
	Strict         bool   `envconfig:"CSV_STRICT" default:"false"`
	TopK           int    `envconfig:"TOP_K" default:"5"`
}

// OpenAIConfig configures the embedding provider. When Endpoint is set the
// Azure OpenAI flavour is used.
type OpenAIConfig struct {
	Endpoint       string        `envconfig:"AZURE_OPENAI_ENDPOINT"`
	APIKey         string        `envconfig:"AZURE_OPENAI_API_KEY"`
	APIVersion     string        `envconfig:"AZURE_OPENAI_API_VERSION" default:"2024-06-01"`
	EmbeddingModel string        `envconfig:"AZURE_OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	BaseURL        string        `envconfig:"OPENAI_BASE_URL"`
	PlainAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	CacheSize      int           `envconfig:"EMBED_CACHE_SIZE" default:"1024"`
	CacheTTL       time.Duration `envconfig:"EMBED_CACHE_TTL" default:"1h"`
}

// Enabled reports whether enough is configured to call an embedding API.
func (c OpenAIConfig) Enabled() bool {
	if c.Endpoint != "" {
		return c.APIKey != ""
	}
	return c.BaseURL != "" || c.PlainAPIKey != ""
}

// OllamaConfig configures a local Ollama server as the embedding provider.
type OllamaConfig struct {
	Host  string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	Model string `envconfig:"OLLAMA_EMBED_MODEL" default:"mxbai-embed-large"`
}

// KnownKeys are the file keys copied into the environment by ApplyFile.
var KnownKeys = []string{
	"MOVIEQA_ADDR",
	"MOVIEQA_SERVER_URL",
	"MOVIEQA_DATA_DIR",
	"MOVIEQA_RATE_LIMIT_RPS",
	"MOVIEQA_RATE_LIMIT_IP_RPS",
	"MOVIEQA_LOG_LEVEL",
	"MOVIEQA_CSV_PATH",
	"MOVIEQA_EMBEDDINGS_PATH",
	"MOVIEQA_CORPUS_SNAPSHOT",
	"MOVIEQA_CSV_STRICT",
	"MOVIEQA_TOP_K",
	"MOVIEQA_BACKEND_TIMEOUT",
	"MOVIEQA_EMBED_CACHE_SIZE",
	"MOVIEQA_EMBED_CACHE_TTL",
	"MOVIEQA_EMBED_PROVIDER",
	"MOVIEQA_OLLAMA_EMBED_MODEL",
	"OLLAMA_HOST",
	"BACKEND_URL",
	"NEXT_PUBLIC_BASE_URL",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_API_VERSION",
	"AZURE_OPENAI_EMBEDDING_MODEL",
	"OPENAI_BASE_URL",
	"OPENAI_API_KEY",
}

// Load reads .env (if present), applies the user config file, and processes
// the environment into a Config. Environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	if err := ApplyFile(""); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv processes the current environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg.Server); err != nil {
		return nil, fmt.Errorf("config server: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.Backend); err != nil {
		return nil, fmt.Errorf("config backend: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.Corpus); err != nil {
		return nil, fmt.Errorf("config corpus: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.OpenAI); err != nil {
		return nil, fmt.Errorf("config openai: %w", err)
	}
	if err := envconfig.Process(Prefix, &cfg.Ollama); err != nil {
		return nil, fmt.Errorf("config ollama: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(os.Getenv(Prefix + "_EMBED_PROVIDER")))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Corpus.TopK <= 0 {
		return fmt.Errorf("config: TOP_K must be positive, got %d", c.Corpus.TopK)
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("config: BACKEND_URL is empty")
	}
	switch c.Provider {
	case "", "openai", "ollama":
	default:
		return fmt.Errorf("config: EMBED_PROVIDER must be openai or ollama, got %q", c.Provider)
	}
	if c.Backend.Timeout < 0 {
		return errors.New("config: BACKEND_TIMEOUT must not be negative")
	}
	return nil
}

// ApplyFile loads dir/config.yaml (or .yml/.json) and sets known keys that are
// not already present in the environment. An empty dir means ~/.movieqa.
// A missing file is not an error.
func ApplyFile(dir string) error {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return nil
		}
		dir = filepath.Join(home, ".movieqa")
	}
	paths := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.json"),
	}
	var data map[string]any
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		m, err := parseFile(p, b)
		if err != nil {
			return fmt.Errorf("config file %s: %w", p, err)
		}
		data = m
		break
	}
	if len(data) == 0 {
		return nil
	}
	for _, key := range KnownKeys {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if v, ok := lookupInsensitive(data, key); ok {
			os.Setenv(key, toString(v))
		}
	}
	return nil
}

func parseFile(path string, b []byte) (map[string]any, error) {
	var m map[string]any
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func lookupInsensitive(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// avoid trailing .0 for integer-like values
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
