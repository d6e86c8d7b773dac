package extractor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

const workspaceMarker = ".unarc-"

var errWorkspaceLost = errors.New("workspace was removed during extraction")

// WorkspaceGlob matches the temporary directories created next to dest.
func WorkspaceGlob(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+workspaceMarker+"*")
}

// workspace is a temporary sibling of the destination. Everything is
// written here first and renamed onto the destination in one step.
type workspace struct {
	dir       string
	real      string
	info      fs.FileInfo
	committed bool
}

func newWorkspace(dest string) (*workspace, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, domain.IO(fmt.Errorf("failed to create parent directory: %w", err))
	}

	dir, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+workspaceMarker+"*")
	if err != nil {
		return nil, domain.IO(fmt.Errorf("failed to create workspace: %w", err))
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, domain.IO(err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, domain.IO(err)
	}

	return &workspace{dir: dir, real: resolved, info: info}, nil
}

// check fails once the workspace directory is gone or has been replaced.
func (w *workspace) check() error {
	fi, err := os.Lstat(w.dir)
	if err != nil || !os.SameFile(fi, w.info) {
		return domain.IO(fmt.Errorf("%s: %w", w.dir, errWorkspaceLost))
	}
	return nil
}

// mkdir creates rel and its missing parents inside the workspace. The
// workspace root itself is never recreated.
func (w *workspace) mkdir(rel string) error {
	if err := w.check(); err != nil {
		return err
	}
	if rel == "." || rel == "" {
		return nil
	}

	p := w.dir
	for _, part := range strings.Split(rel, "/") {
		p = filepath.Join(p, part)
		err := os.Mkdir(p, 0755)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrExist) {
			return domain.IO(err)
		}
		fi, err := os.Lstat(p)
		if err != nil {
			return domain.IO(err)
		}
		if !fi.IsDir() {
			return domain.IO(fmt.Errorf("%s: not a directory", p))
		}
	}
	return nil
}

func (w *workspace) commit(dest string) error {
	if err := w.check(); err != nil {
		return err
	}
	if err := os.Chmod(w.dir, 0755); err != nil {
		return domain.IO(err)
	}
	if err := checkDestination(dest); err != nil {
		return err
	}
	if err := os.Rename(w.dir, dest); err != nil {
		return domain.IO(fmt.Errorf("failed to commit %s: %w", dest, err))
	}
	w.committed = true
	return nil
}

// discard removes the workspace. Directories already switched to their
// archived modes get owner write access back first.
func (w *workspace) discard() error {
	if w.committed {
		return nil
	}
	filepath.WalkDir(w.dir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			os.Chmod(p, 0700)
		}
		return nil
	})
	return os.RemoveAll(w.dir)
}

// checkDestination enforces that dest does not exist yet.
func checkDestination(dest string) error {
	_, err := os.Lstat(dest)
	if err == nil {
		return domain.IO(fmt.Errorf("destination %s: %w", dest, fs.ErrExist))
	}
	if !os.IsNotExist(err) {
		return domain.IO(err)
	}
	return nil
}
