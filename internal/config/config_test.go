package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "DOCOUTLINE_API_KEY", "PATHSTORE_URL", "PATHSTORE_API_KEY", "PUBLISH_RESULTS",
	"ORACLE_PROVIDER", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "OPENAI_API_KEY",
	"OPENAI_BASE_URL", "OPENAI_MODEL", "ORACLE_TIMEOUT", "ORACLE_BUDGET", "WORKER_COUNT",
	"MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "DETAILED_TABLE_LIMIT", "MAX_TABLE_DEPTH",
	"CHUNK_SIZE", "CHUNK_OVERLAP", "PDF_FALLBACK_PDFTOTEXT", FileEnv,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != DefaultPort || cfg.WorkerCount != DefaultWorkerCount || cfg.MaxQueueSize != DefaultMaxQueueSize {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.OracleProvider != "none" || cfg.OracleBudget != 5 || cfg.OracleTimeout != 30*time.Second {
		t.Errorf("unexpected oracle defaults %+v", cfg)
	}
	if cfg.OpenAIModel != "qwen3-32b" || !cfg.PDFFallbackPdftotext || cfg.PublishResults {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxTableDepth != 5 || cfg.DetailedTableLimit != 5 || cfg.ChunkSize != 1500 || cfg.ChunkOverlap != 200 {
		t.Errorf("unexpected analysis defaults %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ORACLE_PROVIDER", " OpenAI ")
	t.Setenv("ORACLE_TIMEOUT", "5s")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("PUBLISH_RESULTS", "true")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.OracleProvider != "openai" || cfg.OracleTimeout != 5*time.Second {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.WorkerCount != 8 || cfg.JobTTL != 10*time.Minute || !cfg.PublishResults || cfg.PDFFallbackPdftotext {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("MAX_QUEUE_SIZE", "0")
	t.Setenv("MAX_TABLE_DEPTH", "-3")
	t.Setenv("ORACLE_BUDGET", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != DefaultWorkerCount || cfg.MaxQueueSize != DefaultMaxQueueSize {
		t.Errorf("expected clamped pool settings, got %+v", cfg)
	}
	if cfg.MaxTableDepth != DefaultMaxTableDepth || cfg.OracleBudget != DefaultOracleBudget {
		t.Errorf("expected clamped analysis settings, got %+v", cfg)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "docoutline.yaml")
	body := "port: \"7000\"\noracle_provider: claude\nanthropic_api_key: file-key\nchunk_size: 800\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHUNK_SIZE", "900")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7000" || cfg.OracleProvider != "claude" || cfg.AnthropicAPIKey != "file-key" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ChunkSize != 900 {
		t.Errorf("expected env to win over file, got chunk size %d", cfg.ChunkSize)
	}
}

func TestLoad_ConfigEnvMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{DocoutlineAPIKey: "k", OracleProvider: "none"}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.DocoutlineAPIKey = "" }, "DOCOUTLINE_API_KEY"},
		{"claude without key", func(c *Config) { c.OracleProvider = "claude" }, "ANTHROPIC_API_KEY"},
		{"openai without key", func(c *Config) { c.OracleProvider = "openai" }, "OPENAI_API_KEY"},
		{"openai with key", func(c *Config) { c.OracleProvider = "openai"; c.OpenAIAPIKey = "x" }, ""},
		{"unknown provider", func(c *Config) { c.OracleProvider = "gemini" }, "unknown ORACLE_PROVIDER"},
		{"publish without key", func(c *Config) { c.PublishResults = true }, "PATHSTORE_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
