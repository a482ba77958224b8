// Package config loads and watches the daemon configuration. Files may
// be JSON or YAML; YAML is coerced to JSON so a single strict decoder
// covers both.
package config

import (
	"fmt"
	"strings"
	"time"

	"remindd/internal/storage"
	logx "remindd/pkg/logx"
)

const (
	DefaultSweepSpec      = "@every 1m"
	DefaultSnoozeInterval = 5 * time.Minute
	DefaultNotifyRate     = 3
)

type Config struct {
	Logging  Logging  `json:"logging"`
	Storage  Storage  `json:"storage"`
	Holidays Holidays `json:"holidays"`
	Notify   Notify   `json:"notify"`
	Sweep    Sweep    `json:"sweep"`
}

type Logging struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func (l Logging) Logx() logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File:    logx.FileConfig{Enabled: l.File.Enabled, Path: l.File.Path},
	}
}

type Storage struct {
	// Driver is one of "memory", "sqlite", "postgres". Empty means memory.
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	DSN         string `json:"dsn"`
	BusyTimeout string `json:"busy_timeout"`
}

func (s Storage) ToStorage() (storage.Config, error) {
	busy, err := durationOr("storage.busy_timeout", s.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      s.Driver,
		Path:        s.Path,
		DSN:         s.DSN,
		BusyTimeout: busy,
	}, nil
}

type Holidays struct {
	Path  string `json:"path"`
	Watch bool   `json:"watch"`
}

type Notify struct {
	RatePerSec     int       `json:"rate_per_sec"`
	SnoozeInterval string    `json:"snooze_interval"`
	StartupTest    bool      `json:"startup_test"`
	Telegram       *Telegram `json:"telegram"`
}

func (n Notify) SnoozeDuration() (time.Duration, error) {
	return durationOr("notify.snooze_interval", n.SnoozeInterval, DefaultSnoozeInterval)
}

func (n Notify) Rate() int {
	if n.RatePerSec <= 0 {
		return DefaultNotifyRate
	}
	return n.RatePerSec
}

type Telegram struct {
	// Token may be left empty and supplied via REMINDD_TELEGRAM_TOKEN.
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type Sweep struct {
	// Spec is a cron expression or descriptor for the expiry sweep.
	Spec     string `json:"spec"`
	Timezone string `json:"timezone"`
}

func (s Sweep) SpecOrDefault() string {
	if strings.TrimSpace(s.Spec) == "" {
		return DefaultSweepSpec
	}
	return s.Spec
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "none", "memory", "sqlite", "sqlite3", "postgres", "pgx":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if _, err := c.Storage.ToStorage(); err != nil {
		return err
	}
	if _, err := c.Notify.SnoozeDuration(); err != nil {
		return err
	}
	if c.Notify.Telegram != nil && c.Notify.Telegram.ChatID == 0 {
		return fmt.Errorf("notify.telegram.chat_id is required when telegram is configured")
	}
	if c.Sweep.Timezone != "" {
		if _, err := time.LoadLocation(c.Sweep.Timezone); err != nil {
			return fmt.Errorf("sweep.timezone: %w", err)
		}
	}
	return nil
}
