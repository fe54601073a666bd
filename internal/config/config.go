// Package config loads run settings from defaults, a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog/netease"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/logger"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/lrc"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/resolver"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvCookie    = "LYRICS163_COOKIE"
	EnvUserAgent = "LYRICS163_USER_AGENT"
	EnvBaseURL   = "LYRICS163_BASE_URL"
	EnvCacheDB   = "LYRICS163_CACHE_DB"
	EnvLogLevel  = "LOG_LEVEL"
)

type Headers struct {
	UserAgent string `yaml:"user_agent"`
	Referer   string `yaml:"referer"`
	Cookie    string `yaml:"cookie"`
}

type Config struct {
	OutDir      string           `yaml:"outdir"`
	Sleep       float64          `yaml:"sleep"` // seconds between entries and between retries
	Retries     int              `yaml:"retries"`
	SearchLimit int              `yaml:"search_limit"`
	Fuzzy       bool             `yaml:"fuzzy"`
	Tolerance   int              `yaml:"tolerance_ms"`
	Weights     resolver.Weights `yaml:"weights"`
	BaseURL     string           `yaml:"base_url"`
	Headers     Headers          `yaml:"headers"`
	CacheDB     string           `yaml:"cache_db"` // empty disables the resolution cache
	LogLevel    string           `yaml:"log_level"`
	Color       bool             `yaml:"color"`
}

func Default() Config {
	h := netease.DefaultHeaders()
	return Config{
		OutDir:      "./lyrics",
		Sleep:       0.6,
		Retries:     2,
		SearchLimit: 10,
		Fuzzy:       true,
		Tolerance:   lrc.DefaultTolerance,
		Weights:     resolver.DefaultWeights(),
		BaseURL:     netease.DefaultBaseURL,
		Headers:     Headers{UserAgent: h.UserAgent, Referer: h.Referer, Cookie: h.Cookie},
		LogLevel:    "info",
		Color:       true,
	}
}

// Load returns the defaults overlaid with the YAML file at path. Keys absent
// from the file keep their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the cookie, user agent, base URL and cache path from
// LYRICS163_* variables, and the log level from LOG_LEVEL, when set and non-empty.
func (c *Config) ApplyEnv() {
	c.Headers.Cookie = getEnv(EnvCookie, c.Headers.Cookie)
	c.Headers.UserAgent = getEnv(EnvUserAgent, c.Headers.UserAgent)
	c.BaseURL = getEnv(EnvBaseURL, c.BaseURL)
	c.CacheDB = getEnv(EnvCacheDB, c.CacheDB)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func (c Config) Validate() error {
	var errs []error
	if c.OutDir == "" {
		errs = append(errs, errors.New("outdir must not be empty"))
	}
	if c.Sleep < 0 {
		errs = append(errs, fmt.Errorf("sleep must be >= 0, got %v", c.Sleep))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must be >= 0, got %d", c.Retries))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("search limit must be > 0, got %d", c.SearchLimit))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must be >= 0, got %d", c.Tolerance))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SleepDuration converts Sleep to a time.Duration.
func (c Config) SleepDuration() time.Duration {
	return time.Duration(c.Sleep * float64(time.Second))
}

// NeteaseHeaders returns the header set for the HTTP client.
func (c Config) NeteaseHeaders() netease.Headers {
	return netease.Headers{UserAgent: c.Headers.UserAgent, Referer: c.Headers.Referer, Cookie: c.Headers.Cookie}
}
