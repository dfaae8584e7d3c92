/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/slow5/pkg/codec"
	"github.com/ssargent/slow5/pkg/slow5"
)

// Config represents the slow5 tool configuration
type Config struct {
	Logging Logging `yaml:"logging"`
	Write   Write   `yaml:"write"`
	Index   Index   `yaml:"index"`
	Server  Server  `yaml:"server"`
	Stats   Stats   `yaml:"stats"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Write contains defaults for files the tool creates
type Write struct {
	RecordCompression string `yaml:"record_compression"`
	SignalCompression string `yaml:"signal_compression"`
}

// Index contains read id index configuration
type Index struct {
	Persist bool `yaml:"persist"`
}

// Server contains HTTP server configuration
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Stats contains configuration for parallel summaries
type Stats struct {
	Workers int `yaml:"workers"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: Logging{
			Level: "info",
		},
		Write: Write{
			RecordCompression: codec.RecordZstd.String(),
			SignalCompression: codec.SignalZigzagDelta.String(),
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Stats: Stats{
			Workers: runtime.NumCPU(),
		},
	}
}

// LoadConfig loads configuration from the specified path. Missing keys keep
// their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that every value names something that exists
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := c.RecordCompression(); err != nil {
		return fmt.Errorf("write.record_compression: %w", err)
	}
	if _, err := c.SignalCompression(); err != nil {
		return fmt.Errorf("write.signal_compression: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Stats.Workers < 0 {
		return fmt.Errorf("stats.workers: must not be negative")
	}
	return nil
}

// LogLevel returns the configured library verbosity
func (c *Config) LogLevel() (slow5.LogLevel, error) {
	return slow5.ParseLogLevel(c.Logging.Level)
}

// RecordCompression returns the configured block codec
func (c *Config) RecordCompression() (slow5.RecordCompression, error) {
	return codec.ParseRecordCompression(c.Write.RecordCompression)
}

// SignalCompression returns the configured signal codec
func (c *Config) SignalCompression() (slow5.SignalCompression, error) {
	return codec.ParseSignalCompression(c.Write.SignalCompression)
}

// Address returns the server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./slow5.yaml"
	}

	// For Linux/macOS, use ~/.config/slow5/config.yaml
	configDir := filepath.Join(homeDir, ".config", "slow5")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
