package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend drivers.
const (
	DriverRedis = "redis"
	DriverLocal = "local"
)

// Config holds the vecfuse configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Import    ImportConfig    `yaml:"import"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig selects and connects the storage backend.
type BackendConfig struct {
	Driver           string   `yaml:"driver"` // redis, local (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	// CatalogFile seeds the local backend with a JSON array of products.
	CatalogFile     string `yaml:"catalog_file"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	HNSWEFSearch    int    `yaml:"hnsw_ef_search"`
	// RecreateIndex drops and rebuilds the product index at startup, e.g. after
	// changing embedding.dimensions or the HNSW parameters.
	RecreateIndex bool `yaml:"recreate_index"`
}

// EmbeddingConfig holds the embedding provider and model.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"`
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	Budget              BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // warn | reject
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// CacheConfig tunes the query embedding cache.
type CacheConfig struct {
	MemorySize int `yaml:"memory_size"`
	TTLSec     int `yaml:"ttl_sec"` // 0 keeps KV entries forever
}

// SearchConfig tunes fusion, pagination and facets.
type SearchConfig struct {
	Strategy             string    `yaml:"strategy"`
	LexicalWeight        *float64  `yaml:"lexical_weight"`
	VectorWeight         *float64  `yaml:"vector_weight"`
	RRFK                 int       `yaml:"rrf_k"`
	PoolDepth            int       `yaml:"pool_depth"`
	DefaultPageSize      int       `yaml:"default_page_size"`
	MaxPageSize          int       `yaml:"max_page_size"`
	Facets               []string  `yaml:"facets"`
	PriceBucketWidth     float64   `yaml:"price_bucket_width"`
	PriceBoundaries      []float64 `yaml:"price_boundaries"`
	RatingBoundaries     []float64 `yaml:"rating_boundaries"`
	BrandFacetLimit      int       `yaml:"brand_facet_limit"`
	LexicalNormalization string    `yaml:"lexical_normalization"`
	LexicalDivisor       float64   `yaml:"lexical_divisor"`
	LexicalRequired      bool      `yaml:"lexical_required"`
	VectorRequired       bool      `yaml:"vector_required"`
	AdapterTimeoutMS     int       `yaml:"adapter_timeout_ms"`
	BrowseOnEmpty        bool      `yaml:"browse_on_empty"`
}

// ImportConfig tunes catalog ingestion.
type ImportConfig struct {
	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
// Search defaults left at zero are filled by the search pipeline itself.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverRedis
	}
	if c.Backend.ReadinessTimeout <= 0 {
		c.Backend.ReadinessTimeout = 10
	}
	if c.Backend.HNSWM <= 0 {
		c.Backend.HNSWM = 16
	}
	if c.Backend.HNSWEFConstruct <= 0 {
		c.Backend.HNSWEFConstruct = 200
	}
	if c.Backend.HNSWEFSearch <= 0 {
		c.Backend.HNSWEFSearch = 64
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 1024
	}
	if c.Search.LexicalNormalization == "" {
		c.Search.LexicalNormalization = "minmax"
	}
	if c.Import.ChunkSize <= 0 {
		c.Import.ChunkSize = 64
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Backend.Driver {
	case DriverRedis:
		if len(c.Backend.Addrs) == 0 {
			return fmt.Errorf("backend.addrs is required for the redis driver")
		}
	case DriverLocal:
	default:
		return fmt.Errorf("backend.driver must be %q or %q, got %q", DriverRedis, DriverLocal, c.Backend.Driver)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must be non-negative")
	}
	if c.Search.AdapterTimeoutMS < 0 {
		return fmt.Errorf("search.adapter_timeout_ms must be non-negative")
	}
	if c.Import.Workers < 0 {
		return fmt.Errorf("import.workers must be non-negative")
	}
	b := c.Embedding.Budget
	if b.DailyTokenLimit < 0 || b.MonthlyTokenLimit < 0 {
		return fmt.Errorf("embedding.budget limits must be non-negative")
	}
	switch b.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", b.Action)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and go run.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
