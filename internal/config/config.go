package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BaselineModes are the supported ways to collapse locality fee amounts into
// the national baseline during a PFS load.
var BaselineModes = []string{"avg", "max", "min"}

// Config holds all runtime configuration for a carecost process.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"
	Debug     bool

	// serve
	ListenAddr     string   `yaml:"listen_addr"`
	DefaultCY      int      `yaml:"default_cy"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// load-pfs / load-hcpcs
	FilePaths    []string
	CY           int
	Version      string // HCPCS release version, e.g. "2025-10"
	BaselineMode string // avg, max, or min
	Promote      bool
	Force        bool
	KeepStaging  bool
}

// yamlConfig is the on-disk YAML structure for the serve command.
type yamlConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	DefaultCY      int      `yaml:"default_cy"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Flag values already set take precedence over the file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = yc.ListenAddr
	}
	if c.DefaultCY == 0 {
		c.DefaultCY = yc.DefaultCY
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = yc.AllowedOrigins
	}
	return nil
}

// ApplyServeDefaults fills unset serve fields with their documented defaults.
func (c *Config) ApplyServeDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DefaultCY == 0 {
		c.DefaultCY = time.Now().UTC().Year()
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// ValidateServe checks fields required by the serve command.
func (c *Config) ValidateServe() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	if c.DefaultCY < 2000 || c.DefaultCY > 2100 {
		return fmt.Errorf("default_cy %d out of range", c.DefaultCY)
	}
	return nil
}

// ValidatePFSLoad checks fields required by the load-pfs command.
func (c *Config) ValidatePFSLoad() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	if len(c.FilePaths) == 0 {
		return fmt.Errorf("at least one --file is required")
	}
	for _, p := range c.FilePaths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("file not accessible: %w", err)
		}
	}
	if c.CY < 2000 || c.CY > 2100 {
		return fmt.Errorf("--year %d out of range", c.CY)
	}
	for _, m := range BaselineModes {
		if c.BaselineMode == m {
			return nil
		}
	}
	return fmt.Errorf("unknown baseline mode %q (want avg, max, or min)", c.BaselineMode)
}

// ValidateHCPCSLoad checks fields required by the load-hcpcs command.
func (c *Config) ValidateHCPCSLoad() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	if len(c.FilePaths) != 1 {
		return fmt.Errorf("exactly one --file is required")
	}
	if _, err := os.Stat(c.FilePaths[0]); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if c.Version == "" {
		return fmt.Errorf("--version is required (e.g. 2025-10)")
	}
	return nil
}
