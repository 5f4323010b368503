package hoard

import "io/fs"

// Path is a source location that has been checked by a FilesystemManager.
// It remembers what the check saw so ingestion does not stat twice.
type Path struct {
	absPath string
	isDir   bool
	size    int64
}

// NewPath records a checked location. FilesystemManager implementations
// call it with the info they got from stat or the directory walk.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	p := &Path{absPath: absPath, isDir: isDir}
	if info != nil {
		p.size = info.Size()
	}
	return p
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

// IsDir reports whether the location was a directory when checked.
func (p *Path) IsDir() bool {
	return p.isDir
}

// Size is the byte length seen when the path was checked. Ingestion logs
// it next to the new post; the hash is always taken from the live file.
func (p *Path) Size() int64 {
	return p.size
}
