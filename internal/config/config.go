// Package config loads service settings from an optional YAML/TOML file and
// the environment. Environment variables always win over file values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration of the feed service.
type Config struct {
	Env      string        `yaml:"env" toml:"env" env:"ENV" env-default:"production"`
	LogLevel string        `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTPConfig    `yaml:"http" toml:"http"`
	Scraper  ScraperConfig `yaml:"scraper" toml:"scraper"`
	Enrich   EnrichConfig  `yaml:"enrich" toml:"enrich"`
	Limits   LimitsConfig  `yaml:"limits" toml:"limits"`
}

// HTTPConfig is where the feed endpoint listens.
type HTTPConfig struct {
	Host string `yaml:"host" toml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" toml:"port" env:"PORT" env-default:"8080"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// ScraperConfig covers outbound requests to the listing and article pages.
type ScraperConfig struct {
	UserAgent         string        `yaml:"user_agent" toml:"user_agent" env:"USER_AGENT"`
	ListingURL        string        `yaml:"listing_url" toml:"listing_url" env:"LISTING_URL" env-default:"https://www.runnersworld.com/gear"`
	Origin            string        `yaml:"origin" toml:"origin" env:"SITE_ORIGIN" env-default:"https://www.runnersworld.com"`
	ListingTimeout    time.Duration `yaml:"listing_timeout" toml:"listing_timeout" env:"LISTING_TIMEOUT" env-default:"10s"`
	ArticleTimeout    time.Duration `yaml:"article_timeout" toml:"article_timeout" env:"ARTICLE_TIMEOUT" env-default:"7s"`
	MaxRedirects      int           `yaml:"max_redirects" toml:"max_redirects" env:"MAX_REDIRECTS" env-default:"3"`
	RequestsPerSecond float64       `yaml:"requests_per_second" toml:"requests_per_second" env:"REQUESTS_PER_SECOND" env-default:"0"`
}

// EnrichConfig controls per-article date enrichment.
type EnrichConfig struct {
	Concurrency int `yaml:"concurrency" toml:"concurrency" env:"ENRICH_CONCURRENCY" env-default:"3"`
	// Cap is how many items per feed get an article fetch. -1 means all.
	Cap int `yaml:"cap" toml:"cap" env:"ENRICH_CAP" env-default:"10"`
	// DateFallback is "pseudo" or "none".
	DateFallback string `yaml:"date_fallback" toml:"date_fallback" env:"DATE_FALLBACK" env-default:"pseudo"`
	// TailPolicy is "include" or "drop".
	TailPolicy string `yaml:"tail_policy" toml:"tail_policy" env:"TAIL_POLICY" env-default:"include"`
}

// LimitsConfig bounds the item count a client may ask for.
type LimitsConfig struct {
	Default int `yaml:"default" toml:"default" env:"DEFAULT_LIMIT" env-default:"15"`
	Max     int `yaml:"max" toml:"max" env:"MAX_LIMIT" env-default:"50"`
}

// hardMaxLimit is the ceiling no configuration may raise.
const hardMaxLimit = 50

// Load reads the file at path, or at CONFIG_PATH when path is empty, and
// then applies the environment. With neither set only the environment and
// defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *Config) validate() error {
	var errs []error

	if !absoluteHTTP(c.Scraper.ListingURL) {
		errs = append(errs, fmt.Errorf("scraper.listing_url must be an absolute http(s) URL, got %q", c.Scraper.ListingURL))
	}
	if !absoluteHTTP(c.Scraper.Origin) {
		errs = append(errs, fmt.Errorf("scraper.origin must be an absolute http(s) URL, got %q", c.Scraper.Origin))
	}
	if c.Scraper.ListingTimeout <= 0 {
		errs = append(errs, errors.New("scraper.listing_timeout must be > 0"))
	}
	if c.Scraper.ArticleTimeout <= 0 {
		errs = append(errs, errors.New("scraper.article_timeout must be > 0"))
	}
	if c.Scraper.MaxRedirects < 0 {
		errs = append(errs, errors.New("scraper.max_redirects must be >= 0"))
	}
	if c.Scraper.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("scraper.requests_per_second must be >= 0"))
	}
	if c.Enrich.Concurrency < 1 {
		errs = append(errs, errors.New("enrich.concurrency must be >= 1"))
	}
	if c.Enrich.Cap < -1 {
		errs = append(errs, errors.New("enrich.cap must be >= -1"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Enrich.DateFallback)) {
	case "pseudo", "none":
	default:
		errs = append(errs, fmt.Errorf("enrich.date_fallback must be pseudo or none, got %q", c.Enrich.DateFallback))
	}
	switch strings.ToLower(strings.TrimSpace(c.Enrich.TailPolicy)) {
	case "include", "drop":
	default:
		errs = append(errs, fmt.Errorf("enrich.tail_policy must be include or drop, got %q", c.Enrich.TailPolicy))
	}
	if c.Limits.Max < 1 || c.Limits.Max > hardMaxLimit {
		errs = append(errs, fmt.Errorf("limits.max must be within [1, %d]", hardMaxLimit))
	}
	if c.Limits.Default < 1 || c.Limits.Default > c.Limits.Max {
		errs = append(errs, errors.New("limits.default must be within [1, limits.max]"))
	}

	return errors.Join(errs...)
}

func absoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
