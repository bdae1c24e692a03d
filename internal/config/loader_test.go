package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SanctionDays != 60 {
		t.Fatalf("expected default sanction days 60, got %d", cfg.SanctionDays)
	}
	if cfg.EditWindowDays != 2 {
		t.Fatalf("expected default edit window 2, got %d", cfg.EditWindowDays)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected default timezone UTC, got %s", cfg.Timezone)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reserva.yaml")
	content := "sqlite_dsn: file:test.db\nsanction_days: 30\nedit_window_days: 3\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SQLiteDSN != "file:test.db" || cfg.SanctionDays != 30 || cfg.EditWindowDays != 3 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reserva.yaml")
	if err := os.WriteFile(path, []byte("sanction_days: 30\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RESERVA_SANCTION_DAYS", "90")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SanctionDays != 90 {
		t.Fatalf("expected env override 90, got %d", cfg.SanctionDays)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("non-numeric sanction days", func(t *testing.T) {
		t.Setenv("RESERVA_SANCTION_DAYS", "sixty")
		if _, err := Load(""); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("RESERVA_TIMEZONE", "Mars/Olympus")
		if _, err := Load(""); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}
