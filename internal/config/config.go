package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig holds one remote API's settings. APIKeys is an ordered
// list; the keyring rotates through it.
type ProviderConfig struct {
	APIKeys     []string `mapstructure:"api_keys"`
	Model       string   `mapstructure:"model"`
	BaseURL     string   `mapstructure:"base_url"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature float32  `mapstructure:"temperature"`
	Version     string   `mapstructure:"version"`
}

type Config struct {
	// DataDir is where the badger store (queue snapshot + artifacts) lives.
	DataDir string `mapstructure:"data_dir"`

	// Provider selects the active provider id (openai, gemini, anthropic).
	Provider  string                    `mapstructure:"provider"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`

	Scheduler struct {
		Concurrency         int `mapstructure:"concurrency"`
		BatchSize           int `mapstructure:"batch_size"`
		PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
		MaxRetries          int `mapstructure:"max_retries"`
	} `mapstructure:"scheduler"`

	Analysis struct {
		// SystemPromptFile / TaskPromptFile override the built-in prompts;
		// relative paths resolve under ~/.config/butler/prompts.
		SystemPromptFile string `mapstructure:"system_prompt_file"`
		TaskPromptFile   string `mapstructure:"task_prompt_file"`
		MaxDocumentChars int    `mapstructure:"max_document_chars"`
	} `mapstructure:"analysis"`

	Server struct {
		Address string `mapstructure:"address"`
		Port    string `mapstructure:"port"`
	} `mapstructure:"server"`
}

// envKeyVars maps provider ids to the conventional environment variable
// carrying their API key. A comma-separated value configures several keys.
var envKeyVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // Look for config.yaml in the current directory

	viper.SetDefault("data_dir", "data")
	viper.SetDefault("provider", "openai")
	viper.SetDefault("scheduler.concurrency", 2)
	viper.SetDefault("scheduler.batch_size", 10)
	viper.SetDefault("scheduler.poll_interval_seconds", 30)
	viper.SetDefault("scheduler.max_retries", 2)
	viper.SetDefault("analysis.max_document_chars", 48000)
	viper.SetDefault("server.address", "127.0.0.1")
	viper.SetDefault("server.port", "8484")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if the config file doesn't exist; defaults and env
		// vars may be enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}

	// Env-var keys supplement the config file so a bare environment still
	// works without a config.yaml.
	for id, envVar := range envKeyVars {
		pc := config.Providers[id]
		if len(pc.APIKeys) == 0 {
			if v := os.Getenv(envVar); v != "" {
				for _, key := range strings.Split(v, ",") {
					if key = strings.TrimSpace(key); key != "" {
						pc.APIKeys = append(pc.APIKeys, key)
					}
				}
				config.Providers[id] = pc
			}
		}
	}

	return &config, nil
}

// ActiveProvider returns the configured provider id and its settings.
func (c *Config) ActiveProvider() (string, ProviderConfig, error) {
	pc, ok := c.Providers[c.Provider]
	if !ok {
		return "", ProviderConfig{}, fmt.Errorf("provider %q is not configured", c.Provider)
	}
	return c.Provider, pc, nil
}
