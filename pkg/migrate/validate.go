package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every .sql file in dir follows the goose
// filename convention and contains the required Up/Down markers.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir %q: %w", dir, err)
	}

	var verr error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		if !sqlFileRe.MatchString(name) {
			verr = multierr.Append(verr, fmt.Errorf("migration %q: filename must match <14-digit-version>_<snake_case>.sql", name))
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			verr = multierr.Append(verr, fmt.Errorf("migration %q: %w", name, err))
			continue
		}
		body := string(raw)
		if !strings.Contains(body, "-- +goose Up") {
			verr = multierr.Append(verr, fmt.Errorf("migration %q: missing '-- +goose Up' marker", name))
		}
		if !strings.Contains(body, "-- +goose Down") {
			verr = multierr.Append(verr, fmt.Errorf("migration %q: missing '-- +goose Down' marker", name))
		}
	}

	return verr
}
