package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidFileName is returned for migration files that do not follow the
// NNN_description.sql convention.
var ErrInvalidFileName = errors.New("migration: invalid file name")

var fileNamePattern = regexp.MustCompile(`^(\d{3})_([a-z0-9_]+)\.sql$`)

// ScanFS reads migration files from dir inside fsys and returns them sorted
// by version. Duplicate versions are rejected.
func ScanFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration: reading %s: %w", dir, err)
	}

	seen := make(map[string]string, len(entries))
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, description, err := ParseFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[version]; ok {
			return nil, fmt.Errorf("migration: version %s defined by both %s and %s", version, previous, entry.Name())
		}
		seen[version] = entry.Name()

		filePath := path.Join(dir, entry.Name())
		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("migration: reading %s: %w", filePath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, fmt.Errorf("migration: %s is empty", filePath)
		}

		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         string(content),
			FilePath:    filePath,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// ParseFileName splits a migration file name into version and description.
func ParseFileName(name string) (version, description string, err error) {
	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return "", "", fmt.Errorf("%w: %s (expected NNN_description.sql)", ErrInvalidFileName, name)
	}
	return matches[1], strings.ReplaceAll(matches[2], "_", " "), nil
}
