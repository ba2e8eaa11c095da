package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"PocketCalc/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Rates struct {
		SourceURL       string        `yaml:"source_url"`
		Timeout         time.Duration `yaml:"timeout"`
		RefreshCron     string        `yaml:"refresh_cron"`
		RefreshCooldown time.Duration `yaml:"refresh_cooldown"`
		CacheFile       string        `yaml:"cache_file"`
	} `yaml:"rates"`
	Display struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"display"`
	History struct {
		File string `yaml:"file"`
	} `yaml:"history"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		Disabled   bool   `yaml:"disabled"` // no audit trail; SQLitePath is cleared
	} `yaml:"database"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Development bool   `yaml:"development"`
		File        string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults cover every field.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RATES_SOURCE_URL"); v != "" {
		cfg.Rates.SourceURL = v
	}
	if v := os.Getenv("RATES_REFRESH_CRON"); v != "" {
		cfg.Rates.RefreshCron = v
	}
	if v := os.Getenv("RATES_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Rates.Timeout = d
		}
	}
	if v := os.Getenv("RATES_CACHE_FILE"); v != "" {
		cfg.Rates.CacheFile = v
	}
	if v := os.Getenv("HISTORY_FILE"); v != "" {
		cfg.History.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SQLITE_DISABLED"); v == "1" || v == "true" {
		cfg.Database.Disabled = true
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v == "1" || v == "true" {
		cfg.Log.Development = true
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Rates.SourceURL == "" {
		cfg.Rates.SourceURL = "https://api.exchangerate-api.com/v4/latest/EUR"
	}
	if cfg.Rates.Timeout == 0 {
		cfg.Rates.Timeout = 10 * time.Second
	}
	if cfg.Rates.RefreshCron == "" {
		cfg.Rates.RefreshCron = "0 0 */6 * * *"
	}
	if cfg.Rates.RefreshCooldown == 0 {
		cfg.Rates.RefreshCooldown = 3 * time.Second
	}
	if cfg.Rates.CacheFile == "" {
		cfg.Rates.CacheFile = "data/rates_cache.json"
	}
	if cfg.Display.From == "" {
		cfg.Display.From = string(model.RON)
	}
	if cfg.Display.To == "" {
		cfg.Display.To = string(model.EUR)
	}
	if cfg.History.File == "" {
		cfg.History.File = "calculator_history.txt"
	}
	if cfg.Database.Disabled {
		cfg.Database.SQLitePath = ""
	} else if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/pocketcalc.db"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "data/pocketcalc.log"
	}

	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Rates.RefreshCron); err != nil {
		return fmt.Errorf("rates.refresh_cron: %w", err)
	}
	if c.Rates.Timeout < 0 {
		return fmt.Errorf("rates.timeout must not be negative")
	}
	if c.Rates.RefreshCooldown < 0 {
		return fmt.Errorf("rates.refresh_cooldown must not be negative")
	}
	if _, err := model.ParseCurrency(c.Display.From); err != nil {
		return fmt.Errorf("display.from: %w", err)
	}
	if _, err := model.ParseCurrency(c.Display.To); err != nil {
		return fmt.Errorf("display.to: %w", err)
	}
	if c.History.File == "" {
		return fmt.Errorf("history.file is required")
	}
	return nil
}
