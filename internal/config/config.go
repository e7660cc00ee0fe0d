package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings basket reads at startup.
type Config struct {
	APIURL         string
	UserID         string
	CurrencySymbol string
	// LogFile is the expanded log path. Empty disables logging.
	LogFile        string
	RequestTimeout time.Duration
}

const (
	defaultConfigPath = "~/.config/basket/config.toml"
	defaultAPIURL     = "127.0.0.1:3000"
	defaultUserID     = "demo-user"
	defaultCurrency   = "$"
	defaultLogFile    = "~/.local/state/basket/basket.log"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		UserID:         defaultUserID,
		CurrencySymbol: defaultCurrency,
		LogFile:        defaultLogPath(),
	}
}

// Load reads the config at path, falling back to defaults when the file is
// missing or a value is blank.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL                string  `toml:"api_url"`
		UserID                string  `toml:"user_id"`
		CurrencySymbol        string  `toml:"currency_symbol"`
		LogFile               *string `toml:"log_file"`
		RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.UserID); v != "" {
		cfg.UserID = v
	}
	if v := strings.TrimSpace(raw.CurrencySymbol); v != "" {
		cfg.CurrencySymbol = v
	}
	// An explicit empty log_file turns logging off.
	if raw.LogFile != nil {
		cfg.LogFile = ""
		if v := strings.TrimSpace(*raw.LogFile); v != "" {
			expanded, err := expandPath(v)
			if err != nil {
				return Config{}, fmt.Errorf("parse config: log_file: %w", err)
			}
			cfg.LogFile = expanded
		}
	}
	if raw.RequestTimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("parse config: request_timeout_seconds must not be negative")
	}
	cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// defaultLogPath expands the default log location. Without a home
// directory it returns "", which disables logging.
func defaultLogPath() string {
	expanded, err := expandPath(defaultLogFile)
	if err != nil {
		return ""
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
