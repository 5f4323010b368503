package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"hoard-go/internal/hoard"
)

// ThumbnailExt is the extension of every thumbnail, whatever the source format.
const ThumbnailExt = ".jpg"

// FileSystemStore is a filesystem-based implementation of the ContentStore
// interface. Files and thumbnails live in two trees sharded by digest:
//
//	<fileRoot>/
//	  ab/cd/abcd…ef.png
//	<thumbRoot>/
//	  ab/cd/abcd…ef.jpg
type FileSystemStore struct {
	fileRoot  string
	thumbRoot string
}

// NewFileSystemStore creates both roots if needed.
func NewFileSystemStore(fileRoot, thumbRoot string) (*FileSystemStore, error) {
	if err := os.MkdirAll(fileRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create file root: %w", err)
	}
	if err := os.MkdirAll(thumbRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail root: %w", err)
	}
	return &FileSystemStore{fileRoot: fileRoot, thumbRoot: thumbRoot}, nil
}

// ShardedPath places name under root in the two-level directory derived
// from the first four hex characters of the digest.
func ShardedPath(root string, hash hoard.Digest, name string) string {
	hex := hash.Hex()
	return filepath.Join(root, hex[0:2], hex[2:4], name)
}

func (s *FileSystemStore) FilePath(post *hoard.Post) string {
	return ShardedPath(s.fileRoot, post.Hash, post.FileName())
}

func (s *FileSystemStore) ThumbnailPath(post *hoard.Post) string {
	return ShardedPath(s.thumbRoot, post.Hash, post.Hash.Hex()+ThumbnailExt)
}

// Put stores the content of r at the post's path.
// If the file already exists the reader is drained and nothing is written.
func (s *FileSystemStore) Put(post *hoard.Post, r io.Reader) error {
	destPath := s.FilePath(post)

	if _, err := os.Stat(destPath); err == nil {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}
	return writeFile(destPath, r)
}

func (s *FileSystemStore) Open(post *hoard.Post) (io.ReadCloser, error) {
	f, err := os.Open(s.FilePath(post))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hoard.NotFound("file " + post.FileName())
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *FileSystemStore) Remove(post *hoard.Post) error {
	path := s.FilePath(post)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	pruneShard(s.fileRoot, path)
	return nil
}

func (s *FileSystemStore) RemoveThumbnail(post *hoard.Post) error {
	path := s.ThumbnailPath(post)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove thumbnail: %w", err)
	}
	pruneShard(s.thumbRoot, path)
	return nil
}

// ValidateSetup verifies that both roots are accessible directories.
func (s *FileSystemStore) ValidateSetup() error {
	for _, dir := range []string{s.fileRoot, s.thumbRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("store directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", dir)
		}
	}
	return nil
}

// pruneShard removes the shard directories above path if they are empty.
// os.Remove refuses non-empty directories, so a failure just stops the walk.
func pruneShard(root, path string) {
	dir := filepath.Dir(path)
	for i := 0; i < 2 && dir != root; i++ {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// writeFile writes data from r to destPath using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader) error {
	// Same directory, so the rename cannot cross filesystems.
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements hoard.ContentStore interface
var _ hoard.ContentStore = (*FileSystemStore)(nil)
