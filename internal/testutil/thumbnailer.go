package testutil

import (
	"os"
	"path/filepath"
	"sync"
)

// StubThumbnailer records Generate calls. When Write is set it creates a
// small placeholder file at dst; when Err is set every call fails.
type StubThumbnailer struct {
	Write bool
	Err   error

	mu    sync.Mutex
	calls [][2]string
}

func (s *StubThumbnailer) Generate(src, dst string) error {
	s.mu.Lock()
	s.calls = append(s.calls, [2]string{src, dst})
	s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if !s.Write {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("thumbnail"), 0o644)
}

// Calls returns the (src, dst) pairs seen so far.
func (s *StubThumbnailer) Calls() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.calls...)
}
