// Package testsupport provides filesystem fixtures shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// WriteFile creates path (and parents) on fsys with the given content.
func WriteFile(t testing.TB, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFileAt writes content and pins the modification time, so cache tests
// can control staleness without sleeping.
func WriteFileAt(t testing.TB, fsys afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	WriteFile(t, fsys, path, content)
	if err := fsys.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t testing.TB, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// AssertExists fails the test unless path exists.
func AssertExists(t testing.TB, fsys afero.Fs, path string) {
	t.Helper()
	if _, err := fsys.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

// AssertMissing fails the test if path exists.
func AssertMissing(t testing.TB, fsys afero.Fs, path string) {
	t.Helper()
	if _, err := fsys.Stat(path); err == nil {
		t.Fatalf("expected %s to be absent", path)
	}
}

// FileNames lists the regular files directly inside dir, sorted.
func FileNames(t testing.TB, fsys afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var names []string
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names
}

// CrossDeviceFs wraps an afero.Fs and fails every rename with EXDEV, the way a
// rename between two mounted volumes does.
type CrossDeviceFs struct {
	afero.Fs
	Renames int
}

// NewCrossDeviceFs wraps base.
func NewCrossDeviceFs(base afero.Fs) *CrossDeviceFs {
	return &CrossDeviceFs{Fs: base}
}

func (c *CrossDeviceFs) Rename(oldname, newname string) error {
	c.Renames++
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
}

// FailingOpenFs wraps an afero.Fs and fails Open for the named paths.
type FailingOpenFs struct {
	afero.Fs
	Fail map[string]error
}

func (f *FailingOpenFs) Open(name string) (afero.File, error) {
	if err, ok := f.Fail[name]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}
