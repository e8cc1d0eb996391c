package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/scholarqa/internal/domain"
)

// Config holds the scholarqa configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Completion CompletionConfig `yaml:"completion"`
	Query      QueryConfig      `yaml:"query"`
	Retry      RetryConfig      `yaml:"retry"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for the HTTP surface.
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

// RetrievalConfig holds the managed index settings. The API key arrives via
// ${VAR} expansion from the environment; it is never written to the file.
type RetrievalConfig struct {
	IndexName      string  `yaml:"index_name"`
	ProjectName    string  `yaml:"project_name"`
	OrganizationID string  `yaml:"organization_id"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	DefaultTopK    int     `yaml:"default_top_k"`
	MinScore       float64 `yaml:"min_score"`
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	Provider    string                    `yaml:"provider"` // openai, anthropic (default: openai)
	Temperature float64                   `yaml:"temperature"`
	MaxTokens   int                       `yaml:"max_tokens"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds per-provider completion settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// QueryConfig bounds accepted question length.
type QueryConfig struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// RetryConfig holds remote-call retry settings.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
}

// PipelineConfig holds whole-request settings.
type PipelineConfig struct {
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// MetadataConfig lists the fragment metadata fields shown to the user.
type MetadataConfig struct {
	Fields []string `yaml:"fields"`
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// defaultMetadataFields is the whitelist of fragment metadata shown to users.
var defaultMetadataFields = []string{
	"file_name",
	"page_label",
	"title",
	"author",
	"creation_date",
	"document_type",
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// The pipeline holds the connection through retrieval and completion.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Retrieval.BaseURL == "" {
		c.Retrieval.BaseURL = "https://api.cloud.llamaindex.ai"
	}
	if c.Retrieval.ProjectName == "" {
		c.Retrieval.ProjectName = "Default"
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 3
	}
	if c.Retrieval.MinScore <= 0 {
		c.Retrieval.MinScore = 0.1
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = "openai"
	}
	if c.Completion.Temperature <= 0 {
		c.Completion.Temperature = 0.2
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 1000
	}
	if p, ok := c.Completion.Providers["openai"]; ok && p.Model == "" {
		p.Model = "gpt-4o-mini"
		c.Completion.Providers["openai"] = p
	}
	if c.Query.MinLength <= 0 {
		c.Query.MinLength = 10
	}
	if c.Query.MaxLength <= 0 {
		c.Query.MaxLength = 500
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = 1000
	}
	if c.Pipeline.RequestTimeoutSec <= 0 {
		c.Pipeline.RequestTimeoutSec = 30
	}
	if len(c.Metadata.Fields) == 0 {
		c.Metadata.Fields = append([]string(nil), defaultMetadataFields...)
	}
}

// Validate checks the configuration for correctness. Missing credentials are
// a startup-time configuration error, never a query-time one.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Retrieval.IndexName == "" {
		return fmt.Errorf("%w: retrieval.index_name is required", domain.ErrConfiguration)
	}
	if c.Retrieval.OrganizationID == "" {
		return fmt.Errorf("%w: retrieval.organization_id is required", domain.ErrConfiguration)
	}
	if c.Retrieval.APIKey == "" {
		return fmt.Errorf("%w: retrieval.api_key is required (set LLAMACLOUD_API_KEY)", domain.ErrConfiguration)
	}
	switch c.Completion.Provider {
	case "openai", "anthropic":
		// ok
	default:
		return fmt.Errorf("completion.provider must be \"openai\" or \"anthropic\", got %q", c.Completion.Provider)
	}
	p, ok := c.Completion.Providers[c.Completion.Provider]
	if !ok {
		return fmt.Errorf("%w: completion.providers.%s is not configured",
			domain.ErrConfiguration, c.Completion.Provider)
	}
	if p.APIKey == "" {
		return fmt.Errorf("%w: completion.providers.%s.api_key is required",
			domain.ErrConfiguration, c.Completion.Provider)
	}
	if p.Model == "" {
		return fmt.Errorf("%w: completion.providers.%s.model is required",
			domain.ErrConfiguration, c.Completion.Provider)
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 1 {
		return fmt.Errorf("completion.temperature must be between 0 and 1, got %g", c.Completion.Temperature)
	}
	if c.Query.MinLength > c.Query.MaxLength {
		return fmt.Errorf("query.min_length %d exceeds query.max_length %d",
			c.Query.MinLength, c.Query.MaxLength)
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
