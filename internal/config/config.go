package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Credentials are normally left
// out of the file and supplied through the environment.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	YouTube YouTubeConfig `yaml:"youtube"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Resend  ResendConfig  `yaml:"resend"`
	Store   StoreConfig   `yaml:"store"`
	Bus     BusConfig     `yaml:"bus"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type YouTubeConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxVideos int    `yaml:"max_videos"`
}

type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type ResendConfig struct {
	APIKey    string `yaml:"api_key"`
	From      string `yaml:"from"`
	BaseURL   string `yaml:"base_url"`
	Recipient string `yaml:"recipient_name"`
}

// StoreConfig selects the job store: "memory", "file" or "mysql".
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

type BusConfig struct {
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		YouTube: YouTubeConfig{MaxVideos: 5},
		OpenAI:  OpenAIConfig{Model: "gpt-4o-mini", Temperature: 0.7},
		Resend:  ResendConfig{Recipient: "Creator"},
		Store:   StoreConfig{Driver: "memory", Dir: "./data", Table: "jobs"},
		Bus:     BusConfig{ShutdownTimeout: 30 * time.Second},
	}
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the YAML file at path (if any) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LISTEN_ADDR":       &c.Server.Addr,
		"YOUTUBE_API_KEY":   &c.YouTube.APIKey,
		"OPENAI_API_KEY":    &c.OpenAI.APIKey,
		"OPENAI_MODEL":      &c.OpenAI.Model,
		"RESEND_API_KEY":    &c.Resend.APIKey,
		"RESEND_FROM_EMAIL": &c.Resend.From,
		"JOB_STORE":         &c.Store.Driver,
		"JOB_STORE_DIR":     &c.Store.Dir,
		"MYSQL_DSN":         &c.Store.DSN,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("MAX_VIDEOS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_VIDEOS %q: %w", v, err)
		}
		c.YouTube.MaxVideos = n
	}
	return nil
}

// Validate checks settings the process cannot start without. Missing API
// credentials are not checked here: each stage reports them as a job failure.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "file":
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file store")
		}
	case "mysql":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn (or MYSQL_DSN) is required for the mysql store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.YouTube.MaxVideos <= 0 {
		return fmt.Errorf("youtube.max_videos must be positive, got %d", c.YouTube.MaxVideos)
	}
	return nil
}
