package config

import (
	"fmt"
	"os"
)

// EmbeddingConfig defines configuration for a single embedding profile.
type EmbeddingConfig struct {
	Name       string `mapstructure:"name"`         // Unique identifier referenced by datasets
	Provider   string `mapstructure:"provider"`     // "local", "openai", "jina", "openai-compatible"
	Model      string `mapstructure:"model"`        // Model name/ID
	ModelPath  string `mapstructure:"model_path"`   // Model directory for the local provider
	APIKey     string `mapstructure:"api_key"`      // API key (can be set directly or via env var)
	APIKeyEnv  string `mapstructure:"api_key_env"`  // Environment variable name for API key
	BaseURL    string `mapstructure:"base_url"`     // Base URL for remote APIs
	BaseURLEnv string `mapstructure:"base_url_env"` // Environment variable name for base URL
	Dimensions int    `mapstructure:"dimensions"`   // Embedding vector dimensions
}

// ResolveEnvVars resolves environment variable references in the configuration.
// Direct values (APIKey, BaseURL) take precedence if already set.
func (c *EmbeddingConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}

	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks that the embedding configuration has all required fields.
// Returns an error describing the first validation failure, or nil if valid.
func (c *EmbeddingConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("embedding config: name is required")
	}
	if c.Provider == "" {
		return fmt.Errorf("embedding %q: provider is required", c.Name)
	}
	if c.Model == "" {
		return fmt.Errorf("embedding %q: model is required", c.Name)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding %q: dimensions must be positive", c.Name)
	}

	switch c.Provider {
	case "local":
		if c.ModelPath == "" {
			return fmt.Errorf("embedding %q: model_path is required for the local provider", c.Name)
		}
		return nil
	case "openai", "jina", "openai-compatible":
		if c.APIKey == "" {
			return fmt.Errorf("embedding %q: api_key is required (set directly or via %s)", c.Name, c.APIKeyEnv)
		}
		return nil
	default:
		return fmt.Errorf("embedding %q: unknown provider %q", c.Name, c.Provider)
	}
}

// Clone creates a deep copy of the embedding configuration.
func (c *EmbeddingConfig) Clone() *EmbeddingConfig {
	clone := *c
	return &clone
}
