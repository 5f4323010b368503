package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"hoard-go/internal/hoard"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
	logger hoard.Logger
}

// NewOSFilesystemManager creates a manager that skips files matching the
// given patterns, the built-in defaults, and any .hoardignore at a walk root.
// Entries a walk cannot read are reported to logger and left out.
func NewOSFilesystemManager(ignore []string, logger hoard.Logger) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore: NewIgnoreMatcher(defaultIgnorePatterns).With(ignore),
		logger: logger,
	}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*hoard.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat follows symlinks; what matters is the kind of the target.
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return hoard.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *hoard.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles walks the directory and returns its regular files in lexical
// order. Ignored directories are not descended into. Symlinks to regular
// files are returned under the link's own path; symlinked directories are
// not followed. Only a failure to read the root itself is an error: any
// other unreadable entry is logged and skipped.
func (m *OSFilesystemManager) FindFiles(path *hoard.Path) ([]*hoard.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	root := path.String()
	extra, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore := m.ignore.With(extra)

	var paths []*hoard.Path
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			m.logger.Warn("skipping unreadable entry", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, ok := m.fileInfo(p, d)
		if ok {
			paths = append(paths, hoard.NewPath(p, false, info))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return paths, nil
}

// fileInfo returns the info of a walked entry that names a regular file,
// either directly or through a symlink. Other kinds report false.
func (m *OSFilesystemManager) fileInfo(p string, d fs.DirEntry) (fs.FileInfo, bool) {
	var (
		info fs.FileInfo
		err  error
	)
	switch {
	case d.Type().IsRegular():
		info, err = d.Info()
	case d.Type()&fs.ModeSymlink != 0:
		info, err = os.Stat(p)
	default:
		return nil, false
	}
	if err != nil {
		m.logger.Warn("skipping unreadable entry", "path", p, "error", err)
		return nil, false
	}
	if !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

// Compile-time check that OSFilesystemManager implements hoard.FilesystemManager interface
var _ hoard.FilesystemManager = (*OSFilesystemManager)(nil)
