// Package config loads the hybridex engine configuration from per-environment
// YAML files with ${VAR} expansion.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the hybridex engine configuration.
type Config struct {
	Ops        OpsConfig           `yaml:"ops"`
	Database   DatabaseConfig      `yaml:"database"`
	Embedding  EmbeddingConfig     `yaml:"embedding"`
	Generation GenerationConfig    `yaml:"generation"`
	Retrieval  RetrievalConfig     `yaml:"retrieval"`
	Roles      map[string][]string `yaml:"roles"`
	Logging    LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// OpsConfig holds the operational HTTP server settings (health, metrics).
type OpsConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings (OpenAI-compatible).
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// GenerationConfig holds generation provider settings (OpenAI-compatible).
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// RetrievalConfig holds retrieval engine settings.
type RetrievalConfig struct {
	IndexName            string  `yaml:"index_name"`
	VectorWeight         float64 `yaml:"vector_weight"`
	KeywordWeight        float64 `yaml:"keyword_weight"`
	DefaultK             int     `yaml:"default_k"`
	EmbeddingCacheTTLSec int     `yaml:"embedding_cache_ttl_sec"`
	ResponseCacheTTLSec  int     `yaml:"response_cache_ttl_sec"`
	MaxExpansionQueries  int     `yaml:"max_expansion_queries"`
	KeywordRefreshSec    int     `yaml:"keyword_refresh_sec"`
	KeywordMaxFeatures   int     `yaml:"keyword_max_features"`
	DisableCache         bool    `yaml:"disable_cache"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Ops.ReadTimeoutSec <= 0 {
		c.Ops.ReadTimeoutSec = 10
	}
	if c.Ops.WriteTimeoutSec <= 0 {
		c.Ops.WriteTimeoutSec = 10
	}
	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Retrieval.IndexName == "" {
		c.Retrieval.IndexName = "hybridex_passages"
	}
	if c.Retrieval.VectorWeight == 0 && c.Retrieval.KeywordWeight == 0 {
		c.Retrieval.VectorWeight = 0.7
		c.Retrieval.KeywordWeight = 0.3
	}
	if c.Retrieval.DefaultK <= 0 {
		c.Retrieval.DefaultK = 5
	}
	if c.Retrieval.EmbeddingCacheTTLSec <= 0 {
		c.Retrieval.EmbeddingCacheTTLSec = 3600
	}
	if c.Retrieval.ResponseCacheTTLSec <= 0 {
		c.Retrieval.ResponseCacheTTLSec = 1800
	}
	if c.Retrieval.MaxExpansionQueries <= 0 {
		c.Retrieval.MaxExpansionQueries = 5
	}
	if c.Retrieval.KeywordRefreshSec <= 0 {
		c.Retrieval.KeywordRefreshSec = 300
	}
	if c.Retrieval.KeywordMaxFeatures <= 0 {
		c.Retrieval.KeywordMaxFeatures = 5000
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 512
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 1 and 65535, got %d", c.Ops.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	// Fused scores stay comparable only when the weights sum to one.
	sum := c.Retrieval.VectorWeight + c.Retrieval.KeywordWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("retrieval weights must sum to 1.0, got %g", sum)
	}
	if c.Retrieval.VectorWeight < 0 || c.Retrieval.KeywordWeight < 0 {
		return fmt.Errorf("retrieval weights must be non-negative")
	}
	if c.Retrieval.MaxExpansionQueries > 10 {
		return fmt.Errorf("retrieval.max_expansion_queries must be at most 10, got %d",
			c.Retrieval.MaxExpansionQueries)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
