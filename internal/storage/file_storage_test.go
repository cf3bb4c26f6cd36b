package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func makeTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "filestorage_test_*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func TestFileStorage_EnsureDir(t *testing.T) {
	dir := filepath.Join(makeTempDir(t), "nested", "downloads")
	fs := NewFileStorage(dir)

	if err := fs.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory %s to exist: %v", dir, err)
	}
	if fs.Dir() != dir {
		t.Errorf("expected Dir()=%s, got %s", dir, fs.Dir())
	}
}

func TestFileStorage_WriteAndSize(t *testing.T) {
	dir := makeTempDir(t)
	fs := NewFileStorage(dir)

	data := []byte("hello world")
	if err := os.WriteFile(filepath.Join(dir, "data.mp4"), data, 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	size, err := fs.GetFileSize("data.mp4")
	if err != nil {
		t.Fatalf("GetFileSize error: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), size)
	}

	abs := filepath.Join(dir, "data.mp4")
	size, err = fs.GetFileSize(abs)
	if err != nil {
		t.Fatalf("GetFileSize(abs) error: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("expected size %d for absolute path, got %d", len(data), size)
	}
}

func TestFileStorage_GetFileSizeMissing(t *testing.T) {
	fs := NewFileStorage(makeTempDir(t))

	if _, err := fs.GetFileSize("nope.mp4"); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestFileStorage_Remove(t *testing.T) {
	dir := makeTempDir(t)
	fs := NewFileStorage(dir)

	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	removed, err := fs.Remove(filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if !removed {
		t.Errorf("expected removed=true for existing file")
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mp4")); err == nil {
		t.Errorf("expected file to be gone after Remove")
	}

	removed, err = fs.Remove(filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("second Remove should tolerate missing file, got %v", err)
	}
	if removed {
		t.Errorf("expected removed=false for missing file")
	}

	removed, err = fs.Remove("")
	if err != nil || removed {
		t.Errorf("expected empty path to be a no-op, got removed=%v err=%v", removed, err)
	}
}

func TestFileStorage_GetFileSizeDirectory(t *testing.T) {
	dir := makeTempDir(t)
	fs := NewFileStorage(dir)

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}
	if _, err := fs.GetFileSize("sub"); err == nil {
		t.Errorf("expected error for directory")
	}
}
