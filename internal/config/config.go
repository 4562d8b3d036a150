package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for AskWeb
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Search SearchConfig `mapstructure:"search"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Prompt PromptConfig `mapstructure:"prompt"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SearchConfig holds search provider configuration
type SearchConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	MaxResults        int           `mapstructure:"max_results"`
	IncludeRawContent bool          `mapstructure:"include_raw_content"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PromptConfig holds answer prompt tuning
type PromptConfig struct {
	// MinCitations is the minimum number of bracketed citations the model is
	// instructed to use when multiple sources support the answer.
	MinCitations int `mapstructure:"min_citations"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables (ASKWEB_SEARCH_API_KEY -> search.api_key)
	v.SetEnvPrefix("ASKWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://api.tavily.com")
	v.SetDefault("search.max_results", 7)
	v.SetDefault("search.include_raw_content", true)
	v.SetDefault("search.timeout", 30*time.Second)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 2*time.Minute)

	v.SetDefault("prompt.min_citations", 2)
}

// Validate checks that every required key is present, naming the missing key
// so a misconfigured deployment fails fast with a descriptive error.
func (c *Config) Validate() error {
	if c.Search.APIKey == "" {
		return fmt.Errorf("missing search provider API key (set search.api_key or ASKWEB_SEARCH_API_KEY)")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("missing LLM provider API key (set llm.api_key or ASKWEB_LLM_API_KEY)")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("missing LLM model name (set llm.model or ASKWEB_LLM_MODEL)")
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown LLM provider %q (expected gemini or openai)", c.LLM.Provider)
	}
	if c.Prompt.MinCitations < 1 {
		return fmt.Errorf("prompt.min_citations must be at least 1, got %d", c.Prompt.MinCitations)
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
