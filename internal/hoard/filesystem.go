package hoard

import (
	"io"
)

// FilesystemManager abstracts access to the files being ingested so the
// archive can be tested without touching the real filesystem.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it, and accepts only regular
	// files and directories.
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// FindFiles lists the regular files under a directory, recursively,
	// skipping anything matched by the ignore rules.
	FindFiles(path *Path) ([]*Path, error)
}

// ExpandPaths resolves raw paths and replaces every directory with its
// recursive file listing. Explicit files come first in the order given,
// then the contents of each directory. Paths that fail to resolve are
// reported through onError and skipped.
func ExpandPaths(fsmgr FilesystemManager, raw []string, onError func(path string, err error)) []*Path {
	var files []*Path
	var dirs []*Path

	for _, r := range raw {
		p, err := fsmgr.Resolve(r)
		if err != nil {
			onError(r, err)
			continue
		}
		if p.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
	}

	for _, d := range dirs {
		found, err := fsmgr.FindFiles(d)
		if err != nil {
			onError(d.String(), err)
			continue
		}
		files = append(files, found...)
	}
	return files
}
