// Package storage provides persistence backends for the subscriber set and
// the seen-article cache.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/StudioSol/set"
)

// FileStore persists the subscriber set as a flat text file, one chat ID per
// line, newline-terminated, order irrelevant. It is the default backend.
//
// Load-then-save is a non-atomic read-modify-write; concurrent writers are
// last-writer-wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the subscriber set. A missing file is not an error and yields an
// empty set. Unparsable lines are skipped; the first cause is returned
// together with the best-effort set.
func (s *FileStore) Load() (*set.LinkedHashSetINT64, error) {
	subscribers := set.NewLinkedHashSetINT64()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return subscribers, nil
	}
	if err != nil {
		return subscribers, fmt.Errorf("failed to read subscribers file: %w", err)
	}

	var firstErr error
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid subscriber entry %q: %w", line, err)
			}
			continue
		}

		subscribers.Add(id)
	}

	return subscribers, firstErr
}

// Save overwrites the file with the given set, creating any missing parent
// directory first.
func (s *FileStore) Save(subscribers *set.LinkedHashSetINT64) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create subscribers directory: %w", err)
		}
	}

	var sb strings.Builder
	for id := range subscribers.Iter() {
		fmt.Fprintf(&sb, "%d\n", id)
	}

	if err := os.WriteFile(s.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write subscribers file: %w", err)
	}

	return nil
}
