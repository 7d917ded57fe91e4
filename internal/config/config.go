// internal/config/config.go
//
// Process configuration.
// Values come from the environment; a `.env` file in the working directory is
// loaded first in development (existing variables win).

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob the server reads at startup.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" | "console"

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"` // memory | file | sqlite | postgres
	StoreFile    string `env:"STORE_FILE" envDefault:"./data/state.json"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/wordduel.db"`
	DatabaseURL  string `env:"DATABASE_URL"`
	StateKey     string `env:"STATE_KEY" envDefault:"state"`

	GuessRule string `env:"GUESS_RULE" envDefault:"any"`
	WordsFile string `env:"WORDS_FILE"`

	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	CookieName   string `env:"COOKIE_NAME" envDefault:"wordduel_device"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production   bool   `env:"PRODUCTION" envDefault:"false"`
}

// Load reads `.env` (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching `.env`.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects combinations the server can't start with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "file", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.Production && c.JWTSecret == "dev_secret_change_me" {
		return fmt.Errorf("config: set JWT_SECRET in production")
	}
	return nil
}
