package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	API struct {
		BaseURL         string `yaml:"base_url"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"api"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Storage struct {
		// SQLitePath is the credential fallback store used when Redis is
		// down.
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`

	Payment struct {
		CallbackAddress string `yaml:"callback_address"`
		ReturnBaseURL   string `yaml:"return_base_url"`
		SuccessMarker   string `yaml:"success_marker"`
		CancelMarker    string `yaml:"cancel_marker"`
	} `yaml:"payment"`

	Google struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsPath string `yaml:"credentials_path"`
		CalendarID      string `yaml:"calendar_id"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"google"`

	Booking struct {
		SlotIntervalMinutes int `yaml:"slot_interval_minutes"`
	} `yaml:"booking"`

	Reminders struct {
		Enabled              bool `yaml:"enabled"`
		CheckIntervalMinutes int  `yaml:"check_interval_minutes"`
		HoursBefore          int  `yaml:"hours_before"`
	} `yaml:"reminders"`

	Bot struct {
		OTPResendCooldownSeconds int     `yaml:"otp_resend_cooldown_seconds"`
		RateLimitPerSecond       float64 `yaml:"rate_limit_per_second"`
		RateBurst                int     `yaml:"rate_burst"`
	} `yaml:"bot"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
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

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/careline.db"
	}
	if err = os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
		return nil, err
	}

	if cfg.Payment.SuccessMarker == "" {
		cfg.Payment.SuccessMarker = "/payment/success"
	}
	if cfg.Payment.CancelMarker == "" {
		cfg.Payment.CancelMarker = "/payment/cancel"
	}
	if cfg.Payment.CallbackAddress == "" {
		cfg.Payment.CallbackAddress = ":8392"
	}
	if cfg.Google.Timezone == "" {
		cfg.Google.Timezone = "Asia/Ho_Chi_Minh"
	}

	return &cfg, nil
}

func (c *Config) SlotInterval() time.Duration {
	if c.Booking.SlotIntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SlotIntervalMinutes) * time.Minute
}

func (c *Config) CacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

func (c *Config) ReminderCheckInterval() time.Duration {
	if c.Reminders.CheckIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Reminders.CheckIntervalMinutes) * time.Minute
}

func (c *Config) OTPResendCooldown() time.Duration {
	if c.Bot.OTPResendCooldownSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Bot.OTPResendCooldownSeconds) * time.Second
}
