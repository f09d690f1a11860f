// Package workspace manages per-species working directories.
//
// The process working directory is global and shared by every goroutine.
// A Workspace entered with WithChdir holds a package lock until Leave, so at
// most one such workspace is active at a time. Stages address files through
// Path and run subprocesses in Dir, which works with or without chdir.
package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrDirectory means the species directory could not be created or entered.
var ErrDirectory = eris.New("directory not found")

var cwdMu sync.Mutex

// Workspace is an entered species directory.
type Workspace struct {
	dir    string
	prev   string
	chdir  bool
	locked bool
	left   bool
}

// Option configures Enter.
type Option func(*Workspace)

// WithChdir makes Enter change the process working directory.
func WithChdir(on bool) Option {
	return func(w *Workspace) { w.chdir = on }
}

// Enter creates dir if needed, records the caller's working directory and,
// with WithChdir, changes into dir. Callers must defer Leave.
func Enter(dir string, opts ...Option) (*Workspace, error) {
	w := &Workspace{}
	for _, o := range opts {
		o(w)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, eris.Wrapf(ErrDirectory, "workspace: resolve %s: %v", dir, err)
	}
	w.dir = abs

	prev, err := os.Getwd()
	if err != nil {
		return nil, eris.Wrap(err, "workspace: getwd")
	}
	w.prev = prev

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, eris.Wrapf(ErrDirectory, "workspace: I/O error, %s: %v", abs, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, eris.Wrapf(ErrDirectory, "workspace: I/O error, %s directory not found", abs)
	}

	if w.chdir {
		cwdMu.Lock()
		w.locked = true
		if err := os.Chdir(abs); err != nil {
			w.unlock()
			return nil, eris.Wrapf(ErrDirectory, "workspace: cd %s: %v", abs, err)
		}
	}
	return w, nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Previous returns the working directory recorded on Enter.
func (w *Workspace) Previous() string { return w.prev }

// Path returns name inside the workspace.
func (w *Workspace) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.dir, name)
}

// Exists reports whether name exists inside the workspace.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.Path(name))
	return err == nil
}

// WriteFile writes data to name inside the workspace.
func (w *Workspace) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(w.Path(name), data, 0o644); err != nil {
		return eris.Wrapf(err, "workspace: write %s", name)
	}
	return nil
}

// Leave restores the working directory recorded on Enter. It is safe to
// call more than once.
func (w *Workspace) Leave() error {
	if w == nil || w.left {
		return nil
	}
	w.left = true
	if !w.chdir {
		return nil
	}
	defer w.unlock()
	if err := os.Chdir(w.prev); err != nil {
		return eris.Wrapf(err, "workspace: restore %s", w.prev)
	}
	return nil
}

func (w *Workspace) unlock() {
	if w.locked {
		w.locked = false
		cwdMu.Unlock()
	}
}
