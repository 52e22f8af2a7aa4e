package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Environment fallbacks for secrets kept out of the config file.
const (
	EnvAIKey  = "SIDEQUEST_AI_KEY"
	EnvSecret = "SIDEQUEST_SECRET"
)

type Source struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	URL     string  `yaml:"url"`
	Weight  float64 `yaml:"weight,omitempty"`
	Enabled bool    `yaml:"enabled"`
}

type GitHubConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Queries  []string `yaml:"queries"`
	Token    string   `yaml:"token,omitempty"`
	PerQuery int      `yaml:"per_query,omitempty"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude", "openai" or "gemini"
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
}

// ResolverConfig bounds duplicate regeneration. The per-duplicate attempt
// limit is fixed and not configurable.
type ResolverConfig struct {
	MaxRounds int `yaml:"max_rounds"`
}

type PublishConfig struct {
	Backend         string `yaml:"backend"` // "fs" or "gcs"
	Dir             string `yaml:"dir,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"secret,omitempty"`
}

type Config struct {
	BatchSize    int            `yaml:"batch_size"`
	Timezone     string         `yaml:"timezone"`
	LogLevel     string         `yaml:"log_level"`
	ArchiveAfter string         `yaml:"archive_after"`
	Sources      []Source       `yaml:"sources"`
	GitHub       GitHubConfig   `yaml:"github"`
	AI           *AIConfig      `yaml:"ai,omitempty"`
	Resolver     ResolverConfig `yaml:"resolver"`
	Publish      PublishConfig  `yaml:"publish"`
	Server       ServerConfig   `yaml:"server"`
}

// AIEnabled returns true if AI is configured with a usable API key.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AIKey() != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv(EnvAIKey)
}

// ServerSecret returns the shared secret guarding write endpoints.
func (c *Config) ServerSecret() string {
	if c.Server.Secret != "" {
		return c.Server.Secret
	}
	return os.Getenv(EnvSecret)
}

// GetBatchSize returns the number of ideas per day, defaulting to 5.
func (c *Config) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return 5
	}
	return c.BatchSize
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the current date (YYYY-MM-DD) in the configured timezone.
func (c *Config) Today() string {
	return time.Now().In(c.Location()).Format(time.DateOnly)
}

// ArchiveDuration is how long batches stay in the daily table.
func (c *Config) ArchiveDuration() time.Duration {
	return parseDays(c.ArchiveAfter, 30*24*time.Hour)
}

// parseDays accepts "Nd" as well as anything time.ParseDuration does.
func parseDays(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SourceWeights maps enabled source names to their weight.
func (c *Config) SourceWeights() map[string]float64 {
	weights := make(map[string]float64)
	for _, s := range c.EnabledSources() {
		if s.Weight > 0 {
			weights[s.Name] = s.Weight
		}
	}
	return weights
}

// PublishDir is where the fs backend writes, defaulting under XDG data.
func (c *Config) PublishDir() string {
	if c.Publish.Dir != "" {
		return c.Publish.Dir
	}
	return filepath.Join(xdg.DataHome, "sidequest", "public")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "sidequest", "config.yaml")
}

func DBPath() string {
	return filepath.Join(xdg.DataHome, "sidequest", "sidequest.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path over the embedded defaults. A missing file is
// created from the defaults.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal over a copy of the defaults so omitted keys keep their values.
	cfg := *defaults
	cfg.Sources = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Sources = mergeSources(cfg.Sources, defaults.Sources)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeSources keeps user sources first and appends defaults the user did not name.
func mergeSources(user, defaults []Source) []Source {
	seen := make(map[string]bool, len(user))
	out := make([]Source, 0, len(user)+len(defaults))
	for _, s := range user {
		seen[s.Name] = true
		out = append(out, s)
	}
	for _, s := range defaults {
		if !seen[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
		if s.Weight < 0 || s.Weight > 1 {
			return fmt.Errorf("source %q: weight must be between 0 and 1, got %v", s.Name, s.Weight)
		}
	}

	if cfg.AI != nil {
		switch cfg.AI.Provider {
		case "claude", "openai", "gemini":
		default:
			return fmt.Errorf("unknown AI provider: %q (valid: claude, openai, gemini)", cfg.AI.Provider)
		}
	}

	switch cfg.Publish.Backend {
	case "", "fs":
	case "gcs":
		if cfg.Publish.Bucket == "" {
			return fmt.Errorf("publish: bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("publish: unknown backend %q (valid: fs, gcs)", cfg.Publish.Backend)
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	if cfg.Resolver.MaxRounds < 0 {
		return fmt.Errorf("resolver: max_rounds must not be negative")
	}
	return nil
}
