// Package config loads the babymeasure configuration.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (BABY_STORE_DSN, BABY_TELEGRAM_TOKEN, etc.)
//  2. YAML config file
//  3. Default()
package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // zoneinfo for minimal images
)

// Config holds the complete babymeasure configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Store    StoreConfig    `koanf:"store"`
	Log      LogConfig      `koanf:"log"`
	Chatbot  ChatbotConfig  `koanf:"chatbot"`
	Telegram TelegramConfig `koanf:"telegram"`
	Publish  PublishConfig  `koanf:"publish"`
	OIDC     OIDCConfig     `koanf:"oidc"`
}

// HTTPConfig holds the web server settings.
type HTTPConfig struct {
	Addr   string `koanf:"addr"`
	WebDir string `koanf:"web_dir"`
}

// StoreConfig selects the measurement store.
type StoreConfig struct {
	Driver string `koanf:"driver"` // postgres, sqlite or memory
	DSN    string `koanf:"dsn"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// ChatbotConfig holds the instruction extractor and dispatcher settings.
type ChatbotConfig struct {
	Greetings       []string      `koanf:"greetings"`
	Timezone        string        `koanf:"timezone"`
	PlotDefaultDays int           `koanf:"plot_default_days"`
	PlotPadding     time.Duration `koanf:"plot_padding"`
}

// TelegramConfig holds the chat bot settings.
type TelegramConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Token         string        `koanf:"token"`
	Secret        string        `koanf:"secret"`
	MaxAttempts   int           `koanf:"max_attempts"`
	PollTimeout   time.Duration `koanf:"poll_timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

// PublishConfig holds the static chart page settings.
type PublishConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"`
	PageURL string        `koanf:"page_url"`
	Timeout time.Duration `koanf:"timeout"`
	Git     GitConfig     `koanf:"git"`
}

// GitConfig commits the published page. Remote names a remote of the
// checkout; empty commits without pushing.
type GitConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Remote      string `koanf:"remote"`
	Branch      string `koanf:"branch"`
	Token       string `koanf:"token"`
	AuthorName  string `koanf:"author_name"`
	AuthorEmail string `koanf:"author_email"`
}

// OIDCConfig holds the single sign-on settings.
type OIDCConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Issuer       string `koanf:"issuer"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080", WebDir: "web"},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "babymeasure.db",
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Chatbot: ChatbotConfig{
			Timezone:        "Europe/Berlin",
			PlotDefaultDays: 10,
			PlotPadding:     12 * time.Hour,
		},
		Telegram: TelegramConfig{
			MaxAttempts:   3,
			PollTimeout:   30 * time.Second,
			RatePerSecond: 1,
		},
		Publish: PublishConfig{
			Dir:     "site",
			Timeout: 2 * time.Minute,
			Git:     GitConfig{Branch: "gh-pages"},
		},
	}
}

// Location returns the chat bot time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Chatbot.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Chatbot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Chatbot.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration for settings that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn required for driver %s", c.Store.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q (must be postgres, sqlite or memory)", c.Store.Driver)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (must be json or console)", c.Log.Format)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Chatbot.PlotDefaultDays <= 0 {
		return errors.New("chatbot plot_default_days must be positive")
	}
	if c.Chatbot.PlotPadding < 0 {
		return errors.New("chatbot plot_padding must not be negative")
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return errors.New("telegram token required when telegram is enabled")
		}
		if c.Telegram.Secret == "" {
			return errors.New("telegram secret required when telegram is enabled")
		}
		if c.Telegram.MaxAttempts <= 0 {
			return errors.New("telegram max_attempts must be positive")
		}
	}

	if c.Publish.Enabled && c.Publish.Dir == "" {
		return errors.New("publish dir required when publishing is enabled")
	}

	if c.OIDC.Enabled && (c.OIDC.Issuer == "" || c.OIDC.ClientID == "") {
		return errors.New("oidc issuer and client_id required when sso is enabled")
	}

	return nil
}
