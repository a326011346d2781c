package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

// Migration files are named <version>_<verb>_<subject>.sql, e.g.
// 20250601091500_create_donations.sql.
var (
	fileNameRe     = regexp.MustCompile(`^(\d{14})_([a-z]+)_[a-z0-9_]+\.sql$`)
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

	migrationVerbs = map[string]bool{
		"create":   true,
		"add":      true,
		"alter":    true,
		"drop":     true,
		"rename":   true,
		"index":    true,
		"backfill": true,
	}

	// The same files run on Postgres and on SQLite (tests, local dev).
	postgresOnly = []string{"SERIAL", "JSONB", "TIMESTAMPTZ", "CREATE EXTENSION", "::"}
)

// CreateSQLMigration writes an empty migration for name into dir and returns its path.
// name must start with one of the migration verbs ("add donation photos").
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	verb, _, _ := strings.Cut(slug, "_")
	if !migrationVerbs[verb] || verb == slug {
		return "", fmt.Errorf("name %q must be <verb> <subject> with verb one of %s", name, verbList())
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), slug))
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	body := fmt.Sprintf(`-- +goose Up
-- %s (must run on postgres and sqlite)
SELECT 1;

-- +goose Down
SELECT 1;
`, slug)
	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

// ValidateDir checks the migrations in an on-disk directory.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks file names, unique versions, both goose sections and
// portable SQL for every .sql file in dir. An empty directory is valid.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read migrations %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_<verb>_<subject>.sql)", name)
		}
		version, verb := m[1], m[2]
		if !migrationVerbs[verb] {
			return fmt.Errorf("migration %q: verb %q is not one of %s", name, verb, verbList())
		}
		if _, err := time.Parse(versionLayout, version); err != nil {
			return fmt.Errorf("migration %q: version is not a timestamp", name)
		}
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		if err := checkSections(name, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func checkSections(name, sql string) error {
	upAt := strings.Index(sql, "-- +goose Up")
	downAt := strings.Index(sql, "-- +goose Down")
	switch {
	case upAt < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case downAt < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case downAt < upAt:
		return fmt.Errorf("migration %q has Down before Up", name)
	}
	if !hasStatement(sql[upAt:downAt]) {
		return fmt.Errorf("migration %q has an empty Up section", name)
	}
	if !hasStatement(sql[downAt:]) {
		return fmt.Errorf("migration %q has an empty Down section", name)
	}

	upper := strings.ToUpper(sql)
	for _, token := range postgresOnly {
		if strings.Contains(upper, token) {
			return fmt.Errorf("migration %q uses %s, which sqlite cannot run", name, token)
		}
	}
	return nil
}

func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}

func verbList() string {
	return "create, add, alter, drop, rename, index, backfill"
}
