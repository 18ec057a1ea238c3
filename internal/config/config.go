package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"zervos/internal/pricing"
)

type Config struct {
	HTTP struct {
		Address             string `yaml:"address"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		BodyLimitBytes      int64  `yaml:"body_limit_bytes"`
		// TrustForwardedFor keys rate limits on X-Forwarded-For. Enable only behind a proxy that sets it.
		TrustForwardedFor bool `yaml:"trust_forwarded_for"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		DefaultSlotMinutes    int    `yaml:"default_slot_minutes"`
		MaxRangeDays          int    `yaml:"max_range_days"`
		WebhookURL            string `yaml:"webhook_url"`
		WebhookTimeoutSeconds int    `yaml:"webhook_timeout_seconds"`
		RateLimitPerMinute    int    `yaml:"rate_limit_per_minute"`
		RateLimitBurst        int    `yaml:"rate_limit_burst"`
	} `yaml:"booking"`

	POS struct {
		TaxPercent       int64          `yaml:"tax_percent"`
		LoyaltyTiers     []pricing.Tier `yaml:"loyalty_tiers"`
		RegisterTTLHours int            `yaml:"register_ttl_hours"`
	} `yaml:"pos"`

	WorkspacesPath         string `yaml:"workspaces_path"`
	WorkspacesWatchSeconds int    `yaml:"workspaces_watch_seconds"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.BodyLimitBytes <= 0 {
		c.HTTP.BodyLimitBytes = 1 << 20
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/zervos.db"
	}
	if c.Booking.DefaultSlotMinutes <= 0 {
		c.Booking.DefaultSlotMinutes = 30
	}
	if c.Booking.MaxRangeDays <= 0 {
		c.Booking.MaxRangeDays = 90
	}
	if c.POS.TaxPercent <= 0 {
		c.POS.TaxPercent = pricing.DefaultTaxPercent
	}
	if len(c.POS.LoyaltyTiers) == 0 {
		c.POS.LoyaltyTiers = pricing.DefaultTiers
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) ReadTimeout() time.Duration {
	if c.HTTP.ReadTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTP.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	if c.HTTP.WriteTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTP.WriteTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) WebhookTimeout() time.Duration {
	if c.Booking.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.WebhookTimeoutSeconds) * time.Second
}

func (c *Config) RegisterTTL() time.Duration {
	if c.POS.RegisterTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.POS.RegisterTTLHours) * time.Hour
}

func (c *Config) WorkspacesWatchInterval() time.Duration {
	if c.WorkspacesWatchSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WorkspacesWatchSeconds) * time.Second
}
