package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Config represents the msgclass configuration file
type Config struct {
	file *ini.File
}

// DefaultPath returns ~/.msgclass/config
func DefaultPath() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config"), nil
}

// HomeDir returns the root directory for msgclass state (~/.msgclass)
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".msgclass"), nil
}

// Load reads the configuration file at path. An empty path means the
// default location. A missing file yields an empty config, not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{file: ini.Empty()}, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	return &Config{file: file}, nil
}

// Parse builds a Config from raw ini text.
func Parse(data []byte) (*Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &Config{file: file}, nil
}

// GetString retrieves a string value from the config
// section.key format (e.g., "train.test_size")
func (c *Config) GetString(key string) string {
	section, keyName := c.parseKey(key)
	if section == "" {
		return ""
	}

	sec := c.file.Section(section)
	if sec == nil {
		return ""
	}

	return sec.Key(keyName).String()
}

// GetInt retrieves an integer value from the config
func (c *Config) GetInt(key string) (int, error) {
	val := c.GetString(key)
	if val == "" {
		return 0, nil
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %w", key, err)
	}

	return intVal, nil
}

// GetFloat retrieves a float value from the config
func (c *Config) GetFloat(key string) (float64, error) {
	val := c.GetString(key)
	if val == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %w", key, err)
	}

	return f, nil
}

// GetBool retrieves a boolean value from the config
func (c *Config) GetBool(key string) bool {
	val := c.GetString(key)
	if val == "" {
		return false
	}

	val = strings.ToLower(val)
	return val == "true" || val == "yes" || val == "1" || val == "on"
}

// HasKey checks if a key exists in the config
func (c *Config) HasKey(key string) bool {
	section, keyName := c.parseKey(key)
	if section == "" {
		return false
	}

	sec := c.file.Section(section)
	if sec == nil {
		return false
	}

	return sec.HasKey(keyName)
}

// parseKey splits a dotted key into section and key name
// e.g., "paths.models_dir" -> ("paths", "models_dir")
// The last dot is the separator so sections may contain dots.
func (c *Config) parseKey(key string) (string, string) {
	lastDot := strings.LastIndex(key, ".")
	if lastDot == -1 {
		return "", ""
	}

	return key[:lastDot], key[lastDot+1:]
}

// GetStringWithFallback retrieves a string value with a fallback default
func (c *Config) GetStringWithFallback(key, fallback string) string {
	if c.HasKey(key) {
		return c.GetString(key)
	}
	return fallback
}

// GetIntWithFallback retrieves an int value with a fallback default
func (c *Config) GetIntWithFallback(key string, fallback int) int {
	if c.HasKey(key) {
		val, err := c.GetInt(key)
		if err == nil {
			return val
		}
	}
	return fallback
}

// GetFloatWithFallback retrieves a float value with a fallback default
func (c *Config) GetFloatWithFallback(key string, fallback float64) float64 {
	if c.HasKey(key) {
		val, err := c.GetFloat(key)
		if err == nil {
			return val
		}
	}
	return fallback
}
