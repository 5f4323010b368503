package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"hoard-go/internal/hoard"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(t *testing.T, root string, paths []*hoard.Path) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p.String())
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.png": "a"})
	m := NewOSFilesystemManager(nil, hoard.NewNopLogger())

	t.Run("file", func(t *testing.T) {
		p, err := m.Resolve(filepath.Join(dir, "a.png"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsDir() {
			t.Error("IsDir() = true for a file")
		}
		if !filepath.IsAbs(p.String()) {
			t.Errorf("String() = %q, want absolute", p.String())
		}
		if p.Size() != 1 {
			t.Errorf("Size() = %d, want 1", p.Size())
		}
	})

	t.Run("directory", func(t *testing.T) {
		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !p.IsDir() {
			t.Error("IsDir() = false for a directory")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := m.Resolve(filepath.Join(dir, "missing")); err == nil {
			t.Error("Resolve() expected error for missing path")
		}
	})
}

func TestOSFilesystemManager_Open(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "contents"})
	m := NewOSFilesystemManager(nil, hoard.NewNopLogger())

	p, err := m.Resolve(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	rc, err := m.Open(p)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "contents" {
		t.Errorf("read %q, want contents", data)
	}

	d, err := m.Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Open(d); err == nil {
		t.Error("Open() expected error for a directory")
	}
}

func TestOSFilesystemManager_FindFiles(t *testing.T) {
	t.Run("recursive in lexical order", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"b.png":          "b",
			"a.png":          "a",
			"sub/c.jpg":      "c",
			"sub/deep/d.gif": "d",
		})
		m := NewOSFilesystemManager(nil, hoard.NewNopLogger())
		root, err := m.Resolve(dir)
		if err != nil {
			t.Fatal(err)
		}

		got, err := m.FindFiles(root)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		want := []string{"a.png", "b.png", "sub/c.jpg", "sub/deep/d.gif"}
		gotRel := relPaths(t, dir, got)
		if len(gotRel) != len(want) {
			t.Fatalf("FindFiles() = %v, want %v", gotRel, want)
		}
		for i := range want {
			if gotRel[i] != want[i] {
				t.Errorf("FindFiles()[%d] = %q, want %q", i, gotRel[i], want[i])
			}
		}
	})

	t.Run("config and ignore file patterns", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"keep.png":        "k",
			"skip.xmp":        "x",
			"cache/thumb.png": "t",
			"raw/a.cr2":       "r",
			"raw/b.png":       "b",
			IgnoreFileName:    "cache\nraw/*.cr2\n",
		})
		m := NewOSFilesystemManager([]string{"*.xmp"}, hoard.NewNopLogger())
		root, err := m.Resolve(dir)
		if err != nil {
			t.Fatal(err)
		}

		got, err := m.FindFiles(root)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		gotRel := relPaths(t, dir, got)
		want := []string{"keep.png", "raw/b.png"}
		if len(gotRel) != len(want) || gotRel[0] != want[0] || gotRel[1] != want[1] {
			t.Errorf("FindFiles() = %v, want %v", gotRel, want)
		}
	})

	t.Run("not a directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"a.png": "a"})
		m := NewOSFilesystemManager(nil, hoard.NewNopLogger())
		p, err := m.Resolve(filepath.Join(dir, "a.png"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.FindFiles(p); err == nil {
			t.Error("FindFiles() expected error for a file")
		}
	})

	t.Run("unreadable subdirectory is skipped", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permissions are not enforced for root")
		}
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"a.png":        "a",
			"locked/x.png": "x",
			"z.png":        "z",
		})
		locked := filepath.Join(dir, "locked")
		if err := os.Chmod(locked, 0o000); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chmod(locked, 0o755) })

		m := NewOSFilesystemManager(nil, hoard.NewNopLogger())
		root, err := m.Resolve(dir)
		if err != nil {
			t.Fatal(err)
		}

		got, err := m.FindFiles(root)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		gotRel := relPaths(t, dir, got)
		want := []string{"a.png", "z.png"}
		if len(gotRel) != len(want) || gotRel[0] != want[0] || gotRel[1] != want[1] {
			t.Errorf("FindFiles() = %v, want %v", gotRel, want)
		}
	})

	t.Run("symlinked files are included", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"a.png":     "a",
			"sub/c.png": "c",
		})
		links := map[string]string{
			"link.png": filepath.Join(dir, "a.png"),
			"linkdir":  filepath.Join(dir, "sub"),
			"dangling": filepath.Join(dir, "missing.png"),
		}
		for name, target := range links {
			if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
				t.Skipf("symlinks unavailable: %v", err)
			}
		}

		m := NewOSFilesystemManager(nil, hoard.NewNopLogger())
		root, err := m.Resolve(dir)
		if err != nil {
			t.Fatal(err)
		}

		got, err := m.FindFiles(root)
		if err != nil {
			t.Fatalf("FindFiles() error = %v", err)
		}
		gotRel := relPaths(t, dir, got)
		want := []string{"a.png", "link.png", "sub/c.png"}
		if len(gotRel) != len(want) {
			t.Fatalf("FindFiles() = %v, want %v", gotRel, want)
		}
		for i := range want {
			if gotRel[i] != want[i] {
				t.Errorf("FindFiles()[%d] = %q, want %q", i, gotRel[i], want[i])
			}
		}
		if got[1].Size() != 1 {
			t.Errorf("link Size() = %d, want target size 1", got[1].Size())
		}
	})
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"album/1.png": "1",
		"album/2.png": "2",
		"single.jpg":  "s",
	})
	m := NewOSFilesystemManager(nil, hoard.NewNopLogger())

	var failed []string
	got := hoard.ExpandPaths(m, []string{
		filepath.Join(dir, "album"),
		filepath.Join(dir, "missing.png"),
		filepath.Join(dir, "single.jpg"),
	}, func(path string, err error) {
		failed = append(failed, path)
	})

	want := []string{"single.jpg", "album/1.png", "album/2.png"}
	gotRel := relPaths(t, dir, got)
	if len(gotRel) != len(want) {
		t.Fatalf("ExpandPaths() = %v, want %v", gotRel, want)
	}
	for i := range want {
		if gotRel[i] != want[i] {
			t.Errorf("ExpandPaths()[%d] = %q, want %q", i, gotRel[i], want[i])
		}
	}
	if len(failed) != 1 {
		t.Errorf("onError called %d times, want 1", len(failed))
	}
}
