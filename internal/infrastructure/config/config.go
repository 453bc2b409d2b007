package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		ReportEveryMin int    `toml:"report_every_min"`
		BaseCurrency   string `toml:"base_currency"`
	} `toml:"app"`

	Storage struct {
		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`

	Pricing struct {
		Redis struct {
			Enabled    bool   `toml:"enabled"`
			Addr       string `toml:"addr"`
			Password   string `toml:"password"`
			DB         int    `toml:"db"`
			Prefix     string `toml:"prefix"`
			TTLSeconds int    `toml:"ttl_seconds"`
		} `toml:"redis"`

		Static struct {
			Quotes map[string]string `toml:"quotes"` // symbol -> decimal price
		} `toml:"static"`
	} `toml:"pricing"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.ReportEveryMin <= 0 {
		cfg.App.ReportEveryMin = 5
	}
	if cfg.App.BaseCurrency == "" {
		cfg.App.BaseCurrency = "USD"
	}
	if cfg.Storage.SQLite.Enabled && cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/folio.db"
	}
	if cfg.Pricing.Redis.Prefix == "" {
		cfg.Pricing.Redis.Prefix = "folio"
	}
}

func validate(cfg *Config) error {
	cfg.App.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.App.BaseCurrency))
	if len(cfg.App.BaseCurrency) != 3 {
		return errors.New("app.base_currency must be a 3-letter code")
	}
	if !cfg.Storage.SQLite.Enabled && !cfg.Storage.Postgres.Enabled {
		return errors.New("no transaction store enabled (storage.sqlite or storage.postgres)")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Pricing.Redis.Enabled && strings.TrimSpace(cfg.Pricing.Redis.Addr) == "" {
		return errors.New("pricing.redis.addr empty but enabled")
	}
	return nil
}
