// Package instance keeps a second daemon from driving the same LEDs.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultPath is where the daemon takes its lock.
const DefaultPath = "/var/run/ledd.pid"

// ErrRunning is returned when another process holds the lock.
var ErrRunning = errors.New("another instance is running")

// Lock is an exclusive flock on a pid file, held until Release.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the lock at path without blocking and writes the current
// pid into the file. If another process holds it the error wraps ErrRunning
// and names that process when its pid can be read.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			if pid, ok := readPID(path); ok {
				return nil, fmt.Errorf("%w (pid %d)", ErrRunning, pid)
			}
			return nil, ErrRunning
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	if err := f.Truncate(0); err != nil {
		unlock(f)
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		unlock(f)
		return nil, fmt.Errorf("write pid: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes the pid file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	removeErr := os.Remove(l.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	err := errors.Join(removeErr, unlock(l.file))
	l.file = nil
	return err
}

func unlock(f *os.File) error {
	return errors.Join(unix.Flock(int(f.Fd()), unix.LOCK_UN), f.Close())
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid, err == nil && pid > 0
}
