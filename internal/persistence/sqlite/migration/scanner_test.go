package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestParseFileName(t *testing.T) {
	t.Run("valid names", func(t *testing.T) {
		version, description, err := ParseFileName("001_schema.sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if version != "001" || description != "schema" {
			t.Fatalf("unexpected result: %s %s", version, description)
		}

		_, description, err = ParseFileName("014_add_sanction_reason.sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if description != "add sanction reason" {
			t.Fatalf("unexpected description: %s", description)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"schema.sql", "1_schema.sql", "001-schema.sql", "001_Schema.sql", "001_schema.txt"} {
			if _, _, err := ParseFileName(name); !errors.Is(err, ErrInvalidFileName) {
				t.Fatalf("expected ErrInvalidFileName for %q, got %v", name, err)
			}
		}
	})
}

func TestScanFS(t *testing.T) {
	t.Run("orders by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/002_b.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
			"sql/001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"sql/010_c.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
		}

		migrations, err := ScanFS(fsys, "sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		for i, want := range []string{"001", "002", "010"} {
			if migrations[i].Version != want {
				t.Fatalf("expected version %s at %d, got %s", want, i, migrations[i].Version)
			}
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/001_a.sql": {Data: []byte("SELECT 1;")},
			"sql/001_b.sql": {Data: []byte("SELECT 1;")},
		}
		if _, err := ScanFS(fsys, "sql"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects empty files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/001_a.sql": {Data: []byte("   \n")},
		}
		if _, err := ScanFS(fsys, "sql"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("embedded migrations are well formed", func(t *testing.T) {
		migrations, err := ScanFS(migrationFiles, "sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatalf("expected embedded migrations")
		}
		previous := ""
		for _, m := range migrations {
			if m.Version <= previous {
				t.Fatalf("migrations out of order: %s after %s", m.Version, previous)
			}
			previous = m.Version
		}
	})
}
