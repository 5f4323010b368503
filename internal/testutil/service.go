package testutil

import (
	"path/filepath"
	"testing"

	"hoard-go/internal/hoard"
	"hoard-go/internal/storage"
)

// TestArchive bundles a Service with the fakes behind it so tests can
// inspect side effects.
type TestArchive struct {
	Service *hoard.Service
	DB      hoard.Database
	Store   *storage.FileSystemStore
	FS      *MockFilesystemManager
	Thumbs  *StubThumbnailer
}

// NewTestArchive wires a Service over an in-memory database, a content
// store under t.TempDir and a mock filesystem. The stub thumbnailer writes
// placeholder files.
func NewTestArchive(t *testing.T) *TestArchive {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewFileSystemStore(filepath.Join(dir, "files"), filepath.Join(dir, "thumbnails"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	db := NewTestDatabase(t)
	fsmgr := NewMockFilesystemManager()
	thumbs := &StubThumbnailer{Write: true}

	return &TestArchive{
		Service: hoard.NewService(db, store, thumbs, fsmgr, hoard.NewNopLogger()),
		DB:      db,
		Store:   store,
		FS:      fsmgr,
		Thumbs:  thumbs,
	}
}
