// Package config loads service configuration from an optional YAML file and
// RESERVA_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the tunable values of the reservation service.
type Config struct {
	// SQLiteDSN locates the reservation and sanction store.
	SQLiteDSN string `yaml:"sqlite_dsn"`
	// SanctionDays is the length of automatically applied sanctions.
	SanctionDays int `yaml:"sanction_days"`
	// EditWindowDays is the minimum distance, in days, between today and
	// the new date of a rescheduled reservation.
	EditWindowDays int `yaml:"edit_window_days"`
	// Timezone names the calendar used to derive "today" from the clock.
	Timezone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Config{
		SQLiteDSN:      "file:reserva.db?_pragma=foreign_keys(1)",
		SanctionDays:   60,
		EditWindowDays: 2,
		Timezone:       "UTC",
		LogLevel:       "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("RESERVA_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if value := strings.TrimSpace(os.Getenv("RESERVA_SANCTION_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "RESERVA_SANCTION_DAYS")
		} else {
			cfg.SanctionDays = days
		}
	}
	if value := strings.TrimSpace(os.Getenv("RESERVA_EDIT_WINDOW_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days < 0 {
			invalid = append(invalid, "RESERVA_EDIT_WINDOW_DAYS")
		} else {
			cfg.EditWindowDays = days
		}
	}
	if tz := strings.TrimSpace(os.Getenv("RESERVA_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}
	if level := strings.TrimSpace(os.Getenv("RESERVA_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	if cfg.SanctionDays <= 0 {
		return Config{}, fmt.Errorf("config: sanction_days must be positive")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Location resolves the configured timezone name.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
