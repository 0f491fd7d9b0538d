// Package instance provides a pid-file based guard so only one long-running
// bot process polls at a time.
package instance

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an acquired pid-file lock.
type Lock struct {
	path string
}

// Acquire takes the lock at path. It fails when another live process holds
// it; a lock left behind by a crashed process is reclaimed.
func Acquire(path string) (*Lock, error) {
	if data, err := os.ReadFile(path); err == nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
		if convErr == nil && processAlive(pid) {
			return nil, fmt.Errorf("another instance is already running (pid %d)", pid)
		}

		// Stale lock from a crashed run.
		_ = os.Remove(path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	fmt.Fprintf(file, "%d\n", os.Getpid())
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	return os.Remove(l.path)
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
