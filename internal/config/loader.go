package config

import (
	"fmt"
	"os"
	"strings"

	"datachat_llm/internal/logger"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration loaded from config.yaml
// with environment overrides for secrets and deployment settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	LLM     LLMConfig     `yaml:"llm"`
	Agent   AgentConfig   `yaml:"agent"`
	Log     logger.Config `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	PlotsDir       string   `yaml:"plots_dir"`
}

type SessionConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds"`
	MaxTurns   int    `yaml:"max_turns"`
	RedisURL   string `yaml:"redis_url"`
}

type LLMConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"-"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type AgentConfig struct {
	MaxToolIterations int `yaml:"max_tool_iterations"`
}

// envOverrides holds deployment settings that come from the environment
// rather than config.yaml.
type envOverrides struct {
	APIKey         string `envconfig:"OPENROUTER_API_KEY"`
	RedisURL       string `envconfig:"REDIS_URL"`
	Addr           string `envconfig:"SERVER_ADDR"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
	Model          string `envconfig:"LLM_MODEL"`
}

// Load reads configuration from the given YAML file and applies
// environment overrides. Missing file is not an error; defaults apply.
func Load(filepath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(filepath)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if env.APIKey != "" {
		config.LLM.APIKey = env.APIKey
	}
	if env.RedisURL != "" {
		config.Session.RedisURL = env.RedisURL
	}
	if env.Addr != "" {
		config.Server.Addr = env.Addr
	}
	if env.AllowedOrigins != "" {
		config.Server.AllowedOrigins = splitCommaList(env.AllowedOrigins)
	}
	if env.Model != "" {
		config.LLM.Model = env.Model
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults fills in default values for anything unset.
func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.PlotsDir == "" {
		c.Server.PlotsDir = "static/plots"
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = 2400 // 40 minutes
	}
	if c.Session.MaxTurns == 0 {
		c.Session.MaxTurns = 10
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "openai/gpt-4o-mini"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1500
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
	if c.Agent.MaxToolIterations == 0 {
		c.Agent.MaxToolIterations = 6
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
