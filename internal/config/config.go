package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"docqa/internal/models"
)

const (
	defaultAPIKeyEnv    = "NVIDIA_API_KEY"
	defaultNIMBaseURL   = "https://integrate.api.nvidia.com/v1"
	defaultEmbedModel   = "baai/bge-m3"
	defaultChatModel    = "meta/llama-3.1-70b-instruct"
	defaultAddr         = ":8501"
	defaultMaxUploadMB  = 200
	defaultSessionTTL   = 2 * time.Hour
	defaultWriteTimeout = 10 * time.Minute
	defaultBatchSize    = 50
	defaultMaxTokens    = 1024
)

type Config struct {
	// APIKeyEnv names the environment variable holding the shared API key.
	APIKeyEnv string       `yaml:"api_key_env"`
	Server    ServerConfig `yaml:"server"`
	EmbedLLM  LLMConfig    `yaml:"embedding"`
	LLM       LLMConfig    `yaml:"llm"`
	RAG       RAGConfig    `yaml:"rag"`
	Log       LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxUploadMB  int64         `yaml:"max_upload_mb"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	BatchSize   int     `yaml:"batch_size"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	TempDir      string `yaml:"temp_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = defaultAPIKeyEnv
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Server.SessionTTL <= 0 {
		c.Server.SessionTTL = defaultSessionTTL
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.EmbedLLM.BaseURL == "" {
		c.EmbedLLM.BaseURL = defaultNIMBaseURL
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = defaultEmbedModel
	}
	if c.EmbedLLM.BatchSize <= 0 {
		c.EmbedLLM.BatchSize = defaultBatchSize
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultNIMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultChatModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = models.ChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = models.ChunkOverlap
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = models.DefaultTopK
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		warnings = append(warnings, fmt.Sprintf("rag chunk_overlap %d is not smaller than chunk_size %d", c.RAG.ChunkOverlap, c.RAG.ChunkSize))
	}
	if c.RAG.ChunkOverlap < 0 {
		warnings = append(warnings, fmt.Sprintf("rag chunk_overlap %d is negative", c.RAG.ChunkOverlap))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("llm temperature %.2f is outside recommended range [0.0, 2.0]", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens < 0 {
		warnings = append(warnings, fmt.Sprintf("llm max_tokens %d is negative", c.LLM.MaxTokens))
	}
	if _, err := c.APIKey(); err != nil {
		warnings = append(warnings, err.Error())
	}
	return warnings
}

// APIKey reads the credential from the environment on every call so a key
// exported after startup is picked up by the next action.
func (c *Config) APIKey() (string, error) {
	key := strings.TrimSpace(strings.TrimPrefix(os.Getenv(c.APIKeyEnv), "Bearer "))
	if key == "" {
		return "", models.NewError(models.KindMissingCredential, nil, "%s not found", c.APIKeyEnv)
	}
	return key, nil
}
