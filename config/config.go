package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`
	Media   MediaConfig   `yaml:"media"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS storage options
	GCS GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// ExportConfig holds the default encoder settings used when a request does
// not specify its own.
type ExportConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         float64 `yaml:"fps"`
	Quality     string  `yaml:"quality"`
	UseHardware bool    `yaml:"use_hardware"`
}

type MediaConfig struct {
	// Dir is watched for new media files when set.
	Dir string `yaml:"dir"`

	// CacheDir holds fetched remote sources.
	CacheDir string `yaml:"cache_dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()

	if config.Storage.Type == "gcs" && config.Storage.GCS.Bucket == "" {
		return nil, fmt.Errorf("gcs storage requires a bucket name")
	}

	return config, nil
}

// Default returns a config with all defaults applied, for running without a
// config file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "output"
	}
	if c.Export.Width == 0 {
		c.Export.Width = 1920
	}
	if c.Export.Height == 0 {
		c.Export.Height = 1080
	}
	if c.Export.FPS == 0 {
		c.Export.FPS = 30
	}
	if c.Export.Quality == "" {
		c.Export.Quality = "medium"
	}
	if c.Media.CacheDir == "" {
		c.Media.CacheDir = "media-cache"
	}
}

// SlogLevel maps the configured level name to a slog level, defaulting to
// info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
