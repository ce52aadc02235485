// Package app assembles the booking bot from configuration.
package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/tosbook/core/config"
	coredatabase "github.com/m3rciful/tosbook/core/database"
)

const defaultReceiptTimeoutMS = 10000

// ReceiptConfig points at the webhook that receives confirmed bookings.
type ReceiptConfig struct {
	URL       string `yaml:"url" envconfig:"RECEIPT_WEBHOOK_URL"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"RECEIPT_TIMEOUT_MS"`
}

// Timeout returns the per-request timeout.
func (c ReceiptConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// BookingConfig tunes answer validation.
type BookingConfig struct {
	// StrictSchedule accepts only calendar dates and HH:MM times.
	StrictSchedule bool `yaml:"strict_schedule" envconfig:"BOOKING_STRICT_SCHEDULE"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Receipt  ReceiptConfig       `yaml:"receipt"`
	Booking  BookingConfig       `yaml:"booking"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and applies defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	cfg.Receipt.URL = strings.TrimSpace(cfg.Receipt.URL)
	if cfg.Receipt.URL == "" {
		return fmt.Errorf("%w: receipt.url is required (or RECEIPT_WEBHOOK_URL)", coreconfig.ErrInvalid)
	}
	if cfg.Receipt.TimeoutMS < 0 {
		return fmt.Errorf("%w: receipt.timeout_ms must be >= 0", coreconfig.ErrInvalid)
	}
	if cfg.Receipt.TimeoutMS == 0 {
		cfg.Receipt.TimeoutMS = defaultReceiptTimeoutMS
	}
	if cfg.Database.Enabled() && strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("%w: database.name is required when database.host is set", coreconfig.ErrInvalid)
	}
	return nil
}
