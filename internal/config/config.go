// Package config provides configuration for the counseling orchestrator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// LLM provider (OpenAI-compatible; Groq by default)
	LLMBaseURL string `yaml:"llm_base_url"`
	LLMAPIKey  string `yaml:"-"`

	// Models
	InstructModel string `yaml:"instruct_model"`
	GuardModel    string `yaml:"guard_model"`

	// Oracle call policy
	LLMTimeout   time.Duration `yaml:"-"`
	LLMRetries   int           `yaml:"llm_retries"`
	RetryBackoff time.Duration `yaml:"-"`

	// Conversation context fed to the pipeline
	ContextMessages int `yaml:"context_messages"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load loads configuration from environment variables. If COUNSEL_CONFIG
// points at a YAML file, its values overlay the environment defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:counsel.db?cache=shared&mode=rwc"),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://api.groq.com/openai"),
		LLMAPIKey:       getEnv("GROQ_API_KEY", ""),
		InstructModel:   getEnv("LLAMA_INSTRUCT_MODEL", "llama-3.1-8b-instant"),
		GuardModel:      getEnv("LLAMA_GUARD_MODEL", "llama-guard-3-8b"),
		LLMTimeout:      time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		LLMRetries:      getEnvInt("LLM_RETRIES", 3),
		RetryBackoff:    time.Duration(getEnvInt("LLM_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		ContextMessages: getEnvInt("CONTEXT_MESSAGES", 10),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("COUNSEL_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// overlayFile applies values from a YAML file on top of the current config.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
