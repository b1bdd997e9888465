package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":3000"`
	DBPath        string `env:"DB_PATH" envDefault:"/data/quickcloset.db"`
	VisionBackend string `env:"VISION_BACKEND" envDefault:"none"`
	OllamaHost    string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" envDefault:"moondream"`
	ClaudeAPIKey  string `env:"CLAUDE_API_KEY"`
	ClaudeModel   string `env:"CLAUDE_MODEL" envDefault:"claude-3-5-haiku-latest"`
	CORSOrigin    string `env:"CORS_ORIGIN" envDefault:"*"`
	MaxBodyBytes  int64  `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile       string `env:"LOG_FILE"`
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	return cfg, nil
}
