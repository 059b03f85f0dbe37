// Package config loads the YAML configuration for keyword-tiers.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file path when set.
const EnvConfigPath = "KEYWORD_TIERS_CONFIG"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Input    InputConfig   `yaml:"input"`
	Output   OutputConfig  `yaml:"output"`
	Rating   RatingConfig  `yaml:"rating"`
	Crawler  CrawlerConfig `yaml:"crawler"`
	LogLevel string        `yaml:"log_level"`
}

type InputConfig struct {
	FrequencyFile string `yaml:"frequency_file"`
	AllowListFile string `yaml:"allowlist_file"`
}

type OutputConfig struct {
	TreeFile     string `yaml:"tree_file"`
	ClustersFile string `yaml:"clusters_file"`
	Indent       bool   `yaml:"indent"`
}

type RatingConfig struct {
	EnableLengthNormalization bool `yaml:"enable_length_normalization"`
	// ArticleLength is only read when length normalization is enabled.
	ArticleLength int `yaml:"article_length"`
}

type CrawlerConfig struct {
	Workers           int           `yaml:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RespectRobots     bool          `yaml:"respect_robots"`
	RobotsCacheSize   int           `yaml:"robots_cache_size"`
}

// Defaults returns a Config with every default value set.
func Defaults() *Config {
	return &Config{
		Input: InputConfig{
			FrequencyFile: "word_frequency.csv",
			AllowListFile: "top40-url-markerid.csv",
		},
		Output: OutputConfig{
			TreeFile:     "json_3_parents.json",
			ClustersFile: "marker_to_circle.json",
		},
		Rating: RatingConfig{
			ArticleLength: 500,
		},
		Crawler: CrawlerConfig{
			Workers:           4,
			RequestsPerSecond: 1,
			Timeout:           30 * time.Second,
			UserAgent:         "keyword-tiers/1.0 (Go)",
			RespectRobots:     true,
			RobotsCacheSize:   128,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. The KEYWORD_TIERS_CONFIG environment
// variable replaces path when set. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		path = envPath
	}

	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.Input.FrequencyFile == "" || c.Input.AllowListFile == "" {
		return fmt.Errorf("%w: input.frequency_file and input.allowlist_file are required", ErrInvalidConfig)
	}
	if c.Output.TreeFile == "" || c.Output.ClustersFile == "" {
		return fmt.Errorf("%w: output.tree_file and output.clusters_file are required", ErrInvalidConfig)
	}
	if c.Rating.EnableLengthNormalization && c.Rating.ArticleLength <= 0 {
		return fmt.Errorf("%w: rating.article_length must be positive, got %d", ErrInvalidConfig, c.Rating.ArticleLength)
	}
	if c.Crawler.Workers < 1 {
		return fmt.Errorf("%w: crawler.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Crawler.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: crawler.requests_per_second must be positive", ErrInvalidConfig)
	}
	if c.Crawler.RobotsCacheSize < 1 {
		return fmt.Errorf("%w: crawler.robots_cache_size must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, name)
}
