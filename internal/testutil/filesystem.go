package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hoard-go/internal/hoard"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
	// OpenErr, when set, is returned by Open. Resolve still succeeds.
	OpenErr error
}

// MockFilesystemManager is an in-memory filesystem for testing.
type MockFilesystemManager struct {
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a file, and any missing parent directories, to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.addParents(path)
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0o644,
		ModTime:     time.Now(),
	}
}

// AddUnreadableFile adds a file whose Open fails with err.
func (m *MockFilesystemManager) AddUnreadableFile(path string, err error) {
	m.AddFile(path, nil)
	m.files[path].OpenErr = err
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.addParents(path)
	m.files[path] = &MockFile{
		Permissions: 0o755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; ok {
			return
		}
		m.files[dir] = &MockFile{Permissions: 0o755, ModTime: time.Now(), IsDirectory: true}
	}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*hoard.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return hoard.NewPath(absPath, file.IsDirectory, newMockFileInfo(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *hoard.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	if file.OpenErr != nil {
		return nil, file.OpenErr
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

// FindFiles returns every file below path in lexical order.
func (m *MockFilesystemManager) FindFiles(path *hoard.Path) ([]*hoard.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	prefix := path.String() + "/"
	var names []string
	for name, file := range m.files {
		if !file.IsDirectory && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	paths := make([]*hoard.Path, len(names))
	for i, name := range names {
		paths[i] = hoard.NewPath(name, false, newMockFileInfo(name, m.files[name]))
	}
	return paths, nil
}

type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func newMockFileInfo(path string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ hoard.FilesystemManager = (*MockFilesystemManager)(nil)
