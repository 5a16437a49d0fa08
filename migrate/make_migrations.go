package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"weldorm/imr"
	"weldorm/migration"
)

// ErrNothingToDo is returned by MakeMigrations when the current IMR's
// fingerprint matches the last persisted migration's hash — spec.md §4.3
// "Fingerprinting": the engine reports success and writes no file.
var ErrNothingToDo = errors.New("migrate: no changes - nothing to do")

// nameRestriction is the custom-migration-name character class spec.md §6
// requires: `[A-Za-z0-9_]+`.
var nameRestriction = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MakeMigrationsOptions configures one make-migrations run (spec.md §6's
// external make-migrations(models_file, migration_dir, name?,
// non_interactive?, warnings_disabled?) verb, minus models_file — callers
// supply the already-derived current IMR directly).
type MakeMigrationsOptions struct {
	MigrationDir string
	Name         string // optional; defaults to "placeholder"
	Diff         Options
}

// LoadChain reads every "NNNN_name.toml" file in dir and decodes it into a
// migration.Migration, sorted by id (dependency links are not checked here).
func LoadChain(dir string) ([]migration.Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("migrate: reading migration directory %q: %w", dir, err)
	}

	var chain []migration.Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, _, err := migration.ParseFilename(e.Name()); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("migrate: reading %q: %w", e.Name(), err)
		}
		m, err := migration.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("migrate: decoding %q: %w", e.Name(), err)
		}
		chain = append(chain, m)
	}
	migration.SortByID(chain)
	return chain, nil
}

// MakeMigrations reconstructs the previously-persisted IMR from the
// migration directory, diffs it against current, and — unless there is
// nothing to do — writes the next "NNNN_name.toml" file.
func MakeMigrations(current *imr.InternalModelFormat, opts MakeMigrationsOptions) (*migration.Migration, error) {
	if opts.Name != "" && !nameRestriction.MatchString(opts.Name) {
		return nil, fmt.Errorf("migrate: migration name %q must match %s", opts.Name, nameRestriction.String())
	}

	lock := NewDirectoryLock(opts.MigrationDir)
	if err := os.MkdirAll(opts.MigrationDir, 0o755); err != nil {
		return nil, fmt.Errorf("migrate: creating migration directory: %w", err)
	}
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	chain, err := LoadChain(opts.MigrationDir)
	if err != nil {
		return nil, err
	}

	fingerprint := imr.Fingerprint(current)

	if len(chain) == 0 {
		if len(current.Models) == 0 {
			return nil, ErrNothingToDo
		}
		m := initialMigration(current, opts.Name, fingerprint)
		if err := writeMigration(opts.MigrationDir, m); err != nil {
			return nil, err
		}
		return &m, nil
	}

	ordered, err := migration.Order(chain)
	if err != nil {
		return nil, err
	}
	last := ordered[len(ordered)-1]
	if last.Hash == fingerprint {
		return nil, ErrNothingToDo
	}

	previous, err := migration.Reconstruct(chain)
	if err != nil {
		return nil, err
	}

	ops, err := Diff(previous, current, opts.Diff)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, ErrNothingToDo
	}

	dep := last.ID
	name := opts.Name
	if name == "" {
		name = "placeholder"
	}
	m := migration.Migration{
		ID:         last.ID + 1,
		Name:       name,
		Dependency: &dep,
		Hash:       fingerprint,
		Operations: ops,
	}
	if err := writeMigration(opts.MigrationDir, m); err != nil {
		return nil, err
	}
	return &m, nil
}

func initialMigration(current *imr.InternalModelFormat, name, fingerprint string) migration.Migration {
	if name == "" {
		name = "initial"
	}
	models := append([]imr.Model{}, current.Models...)
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	var ops []migration.Operation
	for _, m := range models {
		ops = append(ops, migration.CreateModel(m.Name, m.Fields))
	}

	return migration.Migration{
		ID:         1,
		Name:       name,
		Initial:    true,
		Hash:       fingerprint,
		Operations: ops,
	}
}

func writeMigration(dir string, m migration.Migration) error {
	data, err := migration.Encode(m)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, migration.Filename(m))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("migrate: writing %q: %w", path, err)
	}
	return nil
}
