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

// Config holds the finchat configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Admin     AdminConfig     `yaml:"admin"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DatabaseConfig holds Redis connection settings for the vector index.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
// Provider is "ollama" (native /api/embed) or "openai" (OpenAI-compatible API).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Host       string `yaml:"host"`     // ollama host
	BaseURL    string `yaml:"base_url"` // openai-compatible base URL
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMConfig holds chat backend settings.
// Provider selects the client variant: ollama, openai or gigachat.
type LLMConfig struct {
	Provider      string         `yaml:"provider"`
	Host          string         `yaml:"host"` // ollama host
	BaseURL       string         `yaml:"base_url"`
	APIKey        string         `yaml:"api_key"`
	Model         string         `yaml:"model"`
	MaxToolRounds int            `yaml:"max_tool_rounds"`
	GigaChat      GigaChatConfig `yaml:"gigachat"`
}

// GigaChatConfig holds GigaChat OAuth settings.
type GigaChatConfig struct {
	AuthKey            string `yaml:"auth_key"` // base64 client credentials for Basic auth
	AuthURL            string `yaml:"auth_url"`
	Scope              string `yaml:"scope"`
	BaseURL            string `yaml:"base_url"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// RAGConfig holds retrieval settings.
type RAGConfig struct {
	Collection   string `yaml:"collection"`
	TopK         int    `yaml:"top_k"`
	ContextChars int    `yaml:"context_chars"` // per-document cap in the final prompt
}

// CorpusConfig holds corpus source settings.
type CorpusConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Algorithm       string `yaml:"algorithm"` // flat, hnsw (default: flat)
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	BatchSize       int    `yaml:"batch_size"`
	KeyPrefix       string `yaml:"key_prefix"`
}

// AdminConfig holds the admin HTTP endpoint settings (/metrics, /healthz).
// Port 0 disables the endpoint.
type AdminConfig struct {
	Port int `yaml:"port"`
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if len(c.Database.Addrs) == 0 {
		c.Database.Addrs = []string{"localhost:6379"}
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Host == "" {
		c.Embedding.Host = "http://localhost:11434"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "bge-m3"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Host == "" {
		c.LLM.Host = "http://localhost:11434"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "qwen2.5:7b-instruct"
	}
	if c.LLM.MaxToolRounds <= 0 {
		c.LLM.MaxToolRounds = 4
	}
	if c.LLM.GigaChat.AuthURL == "" {
		c.LLM.GigaChat.AuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	}
	if c.LLM.GigaChat.Scope == "" {
		c.LLM.GigaChat.Scope = "GIGACHAT_API_PERS"
	}
	if c.LLM.GigaChat.BaseURL == "" {
		c.LLM.GigaChat.BaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	}
	if c.RAG.Collection == "" {
		c.RAG.Collection = "financial_news"
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.ContextChars <= 0 {
		c.RAG.ContextChars = 1200
	}
	if c.Corpus.CSVPath == "" {
		c.Corpus.CSVPath = "data/russian_fin_news/mini_df.csv"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "flat"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 64
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "finchat:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("embedding.provider must be \"ollama\" or \"openai\", got %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "ollama", "openai", "gigachat":
	default:
		return fmt.Errorf("llm.provider must be one of \"ollama\", \"openai\", \"gigachat\", got %q", c.LLM.Provider)
	}
	switch c.Index.Algorithm {
	case "flat", "hnsw":
	default:
		return fmt.Errorf("index.algorithm must be \"flat\" or \"hnsw\", got %q", c.Index.Algorithm)
	}
	if c.LLM.Provider == "gigachat" && c.LLM.GigaChat.AuthKey == "" {
		return fmt.Errorf("llm.gigachat.auth_key is required for the gigachat provider")
	}
	if c.Admin.Port < 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("admin.port must be between 0 and 65535, got %d", c.Admin.Port)
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
