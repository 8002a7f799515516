package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/faults"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	for _, access := range []Access{ReadOnly, ReadWrite} {
		result := CheckDirectoryAccess("test", dir, access)
		if !result.Passed {
			t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
		}
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), ReadOnly)
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f, ReadOnly)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatable(t *testing.T) {
	root := t.TempDir()
	if result := CheckCreatable("out", filepath.Join(root, "a", "b")); !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creatable, got %+v", result)
	}
	if result := CheckCreatable("out", root); !result.Passed {
		t.Fatalf("expected existing dir to pass, got %+v", result)
	}
	file := filepath.Join(root, "blocker")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckCreatable("out", filepath.Join(file, "child")); result.Passed {
		t.Fatalf("expected failure below a regular file, got %+v", result)
	}
}

func TestCheckDistinctRoots(t *testing.T) {
	tests := []struct {
		input, output string
		pass          bool
	}{
		{"/photos", "/photos", false},
		{"/photos", "/photos/", false},
		{"/photos", "/photos/out", true},
		{"/photos", "/sorted", true},
		{"/photos", "/photos-sorted", true},
	}
	for _, tc := range tests {
		if got := CheckDistinctRoots(tc.input, tc.output); got.Passed != tc.pass {
			t.Fatalf("CheckDistinctRoots(%q, %q) = %+v", tc.input, tc.output, got)
		}
	}
}

func TestRunAllAndVerify(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(root, "photos")
	cfg.Paths.OutputDir = filepath.Join(root, "sorted")
	cfg.Paths.LogDir = filepath.Join(root, "log")
	for _, dir := range []string{cfg.Paths.InputDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := RunAll(&cfg, ReadWrite, true)
	if len(results) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(results))
	}
	if err := Verify(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}

	cfg.Paths.OutputDir = cfg.Paths.InputDir
	err := Verify(RunAll(&cfg, ReadWrite, true))
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "same as input directory") {
		t.Fatalf("error should name the failed check: %v", err)
	}

	if got := RunAll(&cfg, ReadOnly, false); len(got) != 2 {
		t.Fatalf("read-only pass should skip output checks, got %d", len(got))
	}
}

func TestRunAllAcceptsMissingLogDirectoryWithoutCreatingIt(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(root, "photos")
	cfg.Paths.LogDir = filepath.Join(root, "state", "log")
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg, ReadOnly, false)
	if err := Verify(results); err != nil {
		t.Fatalf("missing log directory should be creatable: %v", err)
	}
	if !strings.Contains(results[1].Detail, "will be created") {
		t.Fatalf("unexpected log directory detail: %+v", results[1])
	}
	if _, err := os.Stat(filepath.Join(root, "state")); !os.IsNotExist(err) {
		t.Fatalf("preflight must not create directories, stat err = %v", err)
	}
}
