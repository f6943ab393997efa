package file

import (
	"fmt"
	"os"

	"github.com/coastalkit/flexmesh/errs"
)

// writeGuard scopes the lifetime of an output file being written. Unless
// Commit succeeds, Abort closes the handle and deletes the file, so a failed
// or cancelled write never leaves a partial file behind.
//
// Usage:
//
//	guard, err := newWriteGuard(path)
//	if err != nil { ... }
//	defer guard.Abort()
//	... write ...
//	return guard.Commit()
type writeGuard struct {
	f         *os.File
	path      string
	committed bool
}

func newWriteGuard(path string) (*writeGuard, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	return &writeGuard{f: f, path: path}, nil
}

// File returns the open output file.
func (g *writeGuard) File() *os.File {
	return g.f
}

// Commit syncs and closes the file, keeping it on disk. If syncing or
// closing fails the file is deleted, preserving the no-partial-file
// guarantee.
func (g *writeGuard) Commit() error {
	if err := g.f.Sync(); err != nil {
		g.f.Close()
		os.Remove(g.path)

		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	if err := g.f.Close(); err != nil {
		os.Remove(g.path)

		return fmt.Errorf("%w: %v", errs.ErrIOFailure, err)
	}

	g.committed = true

	return nil
}

// Abort closes and deletes the file unless Commit already succeeded.
// Safe to call multiple times.
func (g *writeGuard) Abort() {
	if g.committed {
		return
	}
	g.committed = true

	g.f.Close()
	os.Remove(g.path)
}
