// internal/app/system/lockfile/lockfile.go
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Lock is an advisory inter-process lock on a well-known path. It guards
// operations that must not run concurrently across processes, such as a
// group sync for one (interest, group) pair.
type Lock struct {
	fl *flock.Flock
}

// pathSafe keeps lock file names shell- and filesystem-friendly.
func pathSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// New builds a lock under dir for the given scope parts, e.g.
// New("/var/lock/memberhub", "fsrc", "groupsync", "racers").
func New(dir string, scope ...string) *Lock {
	parts := make([]string, 0, len(scope))
	for _, s := range scope {
		parts = append(parts, pathSafe(s))
	}
	name := strings.Join(parts, "-") + ".lock"
	return &Lock{fl: flock.New(filepath.Join(dir, name))}
}

// Acquire blocks until the lock is held. The lock directory is created if
// missing.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o770); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("acquire %s: %w", l.fl.Path(), err)
	}
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}
