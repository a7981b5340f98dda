package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one versioned schema change, read from a pair of files named
// NNNNNN_name.up.sql and NNNNNN_name.down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Checksum fingerprints the up script so edits to an applied migration are
// caught on the next run.
func (m Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.Up))
	return hex.EncodeToString(sum[:])
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var schemaMigrations = mustLoadMigrations(migrationFS, "migrations")

func mustLoadMigrations(fsys fs.FS, dir string) []Migration {
	set, err := LoadMigrations(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return set
}

// Migrations returns the blogsphere schema migrations in version order.
func Migrations() []Migration {
	return append([]Migration(nil), schemaMigrations...)
}

// FindMigration looks a migration up by version.
func FindMigration(version int) (Migration, bool) {
	for _, m := range schemaMigrations {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

type scriptPair struct {
	name     string
	up, down *string
}

// LoadMigrations reads every *.sql file in dir. Each version needs exactly one
// up and one down script; anything else is an error.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	pairs := map[int]*scriptPair{}
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(file, ".sql") {
			continue
		}

		version, name, direction, err := parseMigrationFile(file)
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		script := string(body)

		p, ok := pairs[version]
		if !ok {
			p = &scriptPair{name: name}
			pairs[version] = p
		}
		if p.name != name {
			return nil, fmt.Errorf("version %06d is used by both %q and %q", version, p.name, name)
		}
		slot := &p.up
		if direction == "down" {
			slot = &p.down
		}
		if *slot != nil {
			return nil, fmt.Errorf("duplicate %s script for version %06d", direction, version)
		}
		*slot = &script
	}

	set := make([]Migration, 0, len(pairs))
	for version, p := range pairs {
		if p.up == nil || p.down == nil {
			return nil, fmt.Errorf("migration %06d_%s needs both up and down scripts", version, p.name)
		}
		set = append(set, Migration{Version: version, Name: p.name, Up: *p.up, Down: *p.down})
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Version < set[j].Version })
	return set, nil
}

// parseMigrationFile splits "000002_post_images.up.sql" into its parts.
func parseMigrationFile(file string) (int, string, string, error) {
	base := strings.TrimSuffix(file, ".sql")
	direction := path.Ext(base)
	if direction != ".up" && direction != ".down" {
		return 0, "", "", fmt.Errorf("migration %s: expected .up.sql or .down.sql", file)
	}
	base = strings.TrimSuffix(base, direction)

	rawVersion, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("migration %s: expected NNNNNN_name", file)
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil || version < 1 {
		return 0, "", "", fmt.Errorf("migration %s: bad version %q", file, rawVersion)
	}
	return version, name, strings.TrimPrefix(direction, "."), nil
}
