package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileEnv names the environment variable holding an optional config file.
const FileEnv = "DOCOUTLINE_CONFIG"

// Defaults for values that must stay positive.
const (
	DefaultPort               = "8090"
	DefaultWorkerCount        = 4
	DefaultMaxQueueSize       = 100
	DefaultMaxUploadBytes     = 52428800 // 50MB
	DefaultJobTTL             = time.Hour
	DefaultOracleTimeout      = 30 * time.Second
	DefaultOracleBudget       = 5
	DefaultDetailedTableLimit = 5
	DefaultMaxTableDepth      = 5
	DefaultChunkSize          = 1500
	DefaultChunkOverlap       = 200
)

type Config struct {
	Port string

	// Auth
	DocoutlineAPIKey string

	// Pathstore publishing
	PathstoreURL    string
	PathstoreAPIKey string
	PublishResults  bool

	// Oracle
	OracleProvider  string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OracleTimeout   time.Duration
	OracleBudget    int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Analysis
	DetailedTableLimit int
	MaxTableDepth      int

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads configuration from the environment, overlaid on the file named
// by DOCOUTLINE_CONFIG when set.
func Load() (Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile reads configuration from path (YAML, JSON or TOML by extension)
// with environment variables taking precedence. An empty path reads the
// environment only.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config file %s not found", path)
			}
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port: v.GetString("PORT"),

		DocoutlineAPIKey: v.GetString("DOCOUTLINE_API_KEY"),

		PathstoreURL:    v.GetString("PATHSTORE_URL"),
		PathstoreAPIKey: v.GetString("PATHSTORE_API_KEY"),
		PublishResults:  v.GetBool("PUBLISH_RESULTS"),

		OracleProvider:  strings.ToLower(strings.TrimSpace(v.GetString("ORACLE_PROVIDER"))),
		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:     v.GetString("OPENAI_MODEL"),
		OracleTimeout:   v.GetDuration("ORACLE_TIMEOUT"),
		OracleBudget:    v.GetInt("ORACLE_BUDGET"),

		WorkerCount:  v.GetInt("WORKER_COUNT"),
		MaxQueueSize: v.GetInt("MAX_QUEUE_SIZE"),

		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		JobTTL: v.GetDuration("JOB_TTL"),

		DetailedTableLimit: v.GetInt("DETAILED_TABLE_LIMIT"),
		MaxTableDepth:      v.GetInt("MAX_TABLE_DEPTH"),

		ChunkSize:    v.GetInt("CHUNK_SIZE"),
		ChunkOverlap: v.GetInt("CHUNK_OVERLAP"),

		PDFFallbackPdftotext: v.GetBool("PDF_FALLBACK_PDFTOTEXT"),
	}
	cfg.clamp()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("PATHSTORE_URL", "http://localhost:8080")
	v.SetDefault("PUBLISH_RESULTS", false)
	v.SetDefault("ORACLE_PROVIDER", "none")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
	v.SetDefault("OPENAI_MODEL", "qwen3-32b")
	v.SetDefault("ORACLE_TIMEOUT", DefaultOracleTimeout)
	v.SetDefault("ORACLE_BUDGET", DefaultOracleBudget)
	v.SetDefault("WORKER_COUNT", DefaultWorkerCount)
	v.SetDefault("MAX_QUEUE_SIZE", DefaultMaxQueueSize)
	v.SetDefault("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	v.SetDefault("JOB_TTL", DefaultJobTTL)
	v.SetDefault("DETAILED_TABLE_LIMIT", DefaultDetailedTableLimit)
	v.SetDefault("MAX_TABLE_DEPTH", DefaultMaxTableDepth)
	v.SetDefault("CHUNK_SIZE", DefaultChunkSize)
	v.SetDefault("CHUNK_OVERLAP", DefaultChunkOverlap)
	v.SetDefault("PDF_FALLBACK_PDFTOTEXT", true)
}

// clamp resets non-positive numeric values to their defaults.
func (c *Config) clamp() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.OracleProvider == "" {
		c.OracleProvider = "none"
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = DefaultOracleTimeout
	}
	if c.OracleBudget <= 0 {
		c.OracleBudget = DefaultOracleBudget
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = DefaultJobTTL
	}
	if c.DetailedTableLimit <= 0 {
		c.DetailedTableLimit = DefaultDetailedTableLimit
	}
	if c.MaxTableDepth <= 0 {
		c.MaxTableDepth = DefaultMaxTableDepth
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
}

// Validate checks the settings the HTTP service needs.
func (c Config) Validate() error {
	if c.DocoutlineAPIKey == "" {
		return fmt.Errorf("DOCOUTLINE_API_KEY is required")
	}
	if err := c.ValidateOracle(); err != nil {
		return err
	}
	if c.PublishResults && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PUBLISH_RESULTS is set")
	}
	return nil
}

// ValidateOracle checks that the selected oracle provider has its key.
func (c Config) ValidateOracle() error {
	switch c.OracleProvider {
	case "none":
	case "claude":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for oracle provider claude")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for oracle provider openai")
		}
	default:
		return fmt.Errorf("unknown ORACLE_PROVIDER %q", c.OracleProvider)
	}
	return nil
}
