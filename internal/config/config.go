package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"study-assistant/internal/logger"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvBaseURL  = "STUDY_ASSISTANT_URL"
	EnvTimeout  = "STUDY_ASSISTANT_TIMEOUT"
	EnvLogLevel = "STUDY_ASSISTANT_LOG_LEVEL"
	EnvLogFile  = "STUDY_ASSISTANT_LOG_FILE"
)

// Config holds all application configuration
type Config struct {
	// Backend settings
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	HealthTimeout time.Duration `yaml:"health_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Session settings
	TranscriptDir string `yaml:"transcript_dir"`
	NodeID        int64  `yaml:"node_id"`

	// Feature flags
	ShowSources bool `yaml:"show_sources"`
	Plain       bool `yaml:"plain"`
	Verbose     bool `yaml:"verbose"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:8000",
		Timeout:       30 * time.Second,
		HealthTimeout: 5 * time.Second,

		LogLevel: "info",
		LogFile:  expandHome("~/.study-assistant/client.log"),

		TranscriptDir: expandHome("~/.study-assistant/transcripts"),
		NodeID:        1,

		ShowSources: true,
		Plain:       false,
		Verbose:     false,
	}
}

// DefaultPath is where LoadFile looks when no --config flag is given.
func DefaultPath() string {
	return expandHome("~/.study-assistant/config.yaml")
}

// LoadFile overlays values from a YAML file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.LogFile = expandHome(c.LogFile)
	c.TranscriptDir = expandHome(c.TranscriptDir)
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set are left alone.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		logger.Log.Debug("loaded env file", "path", f)
	}
	return nil
}

// ApplyEnv overlays values from the environment.
func (c *Config) ApplyEnv() error {
	if v := GetEnv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := GetEnv(EnvTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := GetEnv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv(EnvLogFile); v != "" {
		c.LogFile = expandHome(v)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("health timeout must be positive")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("node id must be between 0 and 1023")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// parseDuration accepts Go durations ("45s") or a bare number of milliseconds.
func parseDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	var ms int64
	if _, err := fmt.Sscanf(v, "%d", &ms); err != nil || fmt.Sprint(ms) != v {
		return 0, fmt.Errorf("cannot parse %q as a duration", v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
