package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// CreateSQLMigration writes <dir>/<version>_<name>.sql with empty goose
// sections. The version is the current UTC timestamp, bumped past the newest
// existing migration so two files created in the same second still order.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, err := nextVersion(dir)
	if err != nil {
		return "", err
	}
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	body := fmt.Sprintf(`%s
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

%s
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, gooseUp, safe, gooseDown, safe)

	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

func nextVersion(dir string) (string, error) {
	latest, err := latestVersion(dir)
	if err != nil {
		return "", err
	}
	candidate := now().Format(versionLayout)
	v, err := strconv.ParseInt(candidate, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse version %q: %w", candidate, err)
	}
	if v > latest {
		return candidate, nil
	}
	last, err := time.Parse(versionLayout, strconv.FormatInt(latest, 10))
	if err != nil {
		return "", fmt.Errorf("parse latest version %d: %w", latest, err)
	}
	return last.Add(time.Second).Format(versionLayout), nil
}
