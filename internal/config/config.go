// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Addr   string `env:"FILMOTECA_ADDR" envDefault:":8080"`
	DBPath string `env:"FILMOTECA_DB" envDefault:"filmoteca.db"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `env:"FILMOTECA_HTTP_TIMEOUT" envDefault:"10s"`

	TMDB    TMDBConfig
	Weather WeatherConfig
}

// TMDBConfig holds TMDB-specific configuration. Exactly one of the two
// auth modes must be set: a v4 bearer token or a v3 api_key.
type TMDBConfig struct {
	BaseURL     string `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	BearerToken string `env:"TMDB_BEARER_TOKEN"`
	APIKey      string `env:"TMDB_API_KEY"`
	Language    string `env:"TMDB_LANGUAGE" envDefault:"pt-BR"`
}

// WeatherConfig holds Open-Meteo-specific configuration
type WeatherConfig struct {
	BaseURL string `env:"OPENMETEO_BASE_URL" envDefault:"https://api.open-meteo.com/v1"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseBearerToken reports whether the bearer-token mode is active
func (c *TMDBConfig) UseBearerToken() bool {
	return c.BearerToken != ""
}

// Validate ensures the configuration selects exactly one TMDB auth mode
func (c *Config) Validate() error {
	if c.TMDB.BearerToken == "" && c.TMDB.APIKey == "" {
		return fmt.Errorf("no TMDB credentials - set TMDB_BEARER_TOKEN or TMDB_API_KEY")
	}
	if c.TMDB.BearerToken != "" && c.TMDB.APIKey != "" {
		return fmt.Errorf("both TMDB_BEARER_TOKEN and TMDB_API_KEY set - pick one auth mode")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("FILMOTECA_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
