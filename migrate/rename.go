package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/gofrs/flock"
)

// HuhPrompter drives rename confirmations through an interactive
// huh.NewConfirm() prompt, the same confirm pattern BeadsLog's
// cmd/bd/create_form.go uses for "Create this issue?".
type HuhPrompter struct{}

// AskRename implements RenamePrompter.
func (HuhPrompter) AskRename(question string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return false, nil
		}
		return false, fmt.Errorf("migrate: rename prompt: %w", err)
	}
	return confirmed, nil
}

// DirectoryLock guards a migration directory against two concurrent
// make-migrations invocations racing on the next migration id — ported from
// BeadsLog's cmd/bd/sync.go TryLock/Unlock-around-a-lockfile pattern.
type DirectoryLock struct {
	lock *flock.Flock
}

// NewDirectoryLock prepares (without yet acquiring) a lock for dir.
func NewDirectoryLock(dir string) *DirectoryLock {
	return &DirectoryLock{lock: flock.New(filepath.Join(dir, ".weldorm.lock"))}
}

// Acquire tries to take the lock, failing immediately (non-blocking) if
// another process already holds it.
func (d *DirectoryLock) Acquire() error {
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("migrate: acquiring migration directory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("migrate: another make-migrations is already running against this directory")
	}
	return nil
}

// Release drops the lock.
func (d *DirectoryLock) Release() error {
	return d.lock.Unlock()
}
