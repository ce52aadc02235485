// Package config loads the settings shared by every bot built on the core:
// Telegram access, update delivery, logging and rate limiting.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure reported by Normalize.
var ErrInvalid = errors.New("invalid config")

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

const defaultLongPollTimeout = 10 * time.Second

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// Webhook reports whether updates are pushed by Telegram.
func (t TelegramConfig) Webhook() bool {
	return strings.EqualFold(strings.TrimSpace(t.RunMode), RunModeWebhook)
}

// LongPollTimeout returns the configured long polling timeout or the default.
func (t TelegramConfig) LongPollTimeout() time.Duration {
	if t.LongPollTimeoutSeconds > 0 {
		return time.Duration(t.LongPollTimeoutSeconds) * time.Second
	}
	return defaultLongPollTimeout
}

func (t *TelegramConfig) normalize() error {
	if strings.TrimSpace(t.Token) == "" {
		return fmt.Errorf("%w: telegram token is required", ErrInvalid)
	}
	rm := strings.ToLower(strings.TrimSpace(t.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	if rm != RunModeWebhook && rm != RunModeLongpoll {
		return fmt.Errorf("%w: telegram.run_mode %q; allowed: webhook, longpoll", ErrInvalid, t.RunMode)
	}
	if t.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("%w: telegram.longpoll_timeout_seconds must be >= 0", ErrInvalid)
	}
	t.RunMode = rm
	return nil
}

// WebhookConfig specifies the listener used when Telegram pushes updates to the bot.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// Addr is the host:port the webhook server binds to.
func (w WebhookConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Listen, w.Port)
}

func (w WebhookConfig) validate() error {
	switch {
	case strings.TrimSpace(w.URL) == "":
		return fmt.Errorf("%w: webhook.url is required in webhook mode", ErrInvalid)
	case strings.TrimSpace(w.Listen) == "":
		return fmt.Errorf("%w: webhook.listen is required in webhook mode", ErrInvalid)
	case w.Port <= 0:
		return fmt.Errorf("%w: webhook.port must be > 0 in webhook mode", ErrInvalid)
	}
	return nil
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder string `yaml:"keys_order"`
	Dir       string `yaml:"dir"`
	BotFile   string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for per-user rate limiting. A zero
// interval disables the limiter.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Interval is the time it takes one token to refill.
func (r RateLimitConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// Excluded returns the update kinds that bypass the limiter.
func (r RateLimitConfig) Excluded() map[string]struct{} {
	ex := make(map[string]struct{}, len(r.ExcludeUpdates))
	for _, kind := range r.ExcludeUpdates {
		if kind = strings.ToLower(strings.TrimSpace(kind)); kind != "" {
			ex[kind] = struct{}{}
		}
	}
	return ex
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return fmt.Errorf("%w: rate_limit.interval_ms must be >= 0", ErrInvalid)
	}
	if r.Burst <= 0 {
		r.Burst = 1
	}
	kinds := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		switch key := strings.ToLower(strings.TrimSpace(v)); key {
		case "":
		case UpdateCallback, UpdateMessage:
			kinds = append(kinds, key)
		default:
			return fmt.Errorf("%w: rate_limit.exclude_updates value %q; allowed: callback, message", ErrInvalid, v)
		}
	}
	r.ExcludeUpdates = kinds
	return nil
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Decode reads the YAML file at path into out and overlays environment variables.
// out must be a pointer to a struct; nested core sections are processed as well.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Load reads the core configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills in defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	if err := cfg.Telegram.normalize(); err != nil {
		return err
	}
	if cfg.Telegram.Webhook() {
		if err := cfg.Webhook.validate(); err != nil {
			return err
		}
	}
	return cfg.RateLimit.normalize()
}
