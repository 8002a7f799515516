package relocator

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/config"
	"mediasort/internal/fsutil"
	"mediasort/internal/pattern"
	"mediasort/internal/testsupport"
)

func newRelocator(fsys afero.Fs) *Relocator {
	cfg := config.Default()
	return New(fsys, Options{OutputRoot: "/out", Extensions: cfg.ExtensionSet(), SidecarName: cfg.Dedup.SidecarName}, nil)
}

func TestRelocateMovesDatedMedia(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/in/IMG_2020-05-01_120000-copy.jpg", "photo")
	testsupport.WriteFile(t, fsys, "/in/VID_2019-12-31_235959.MOV", "video")
	testsupport.WriteFile(t, fsys, "/in/note.txt", "hello")
	testsupport.WriteFile(t, fsys, "/in/holiday.jpg", "undated")
	testsupport.WriteFile(t, fsys, "/in/.secure_hashes", "")

	r := newRelocator(fsys)
	result, err := r.Relocate(context.Background(), "/in", testsupport.FileNames(t, fsys, "/in"))
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if len(result.Moved) != 2 || result.Ignored != 2 || result.Unmatched != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	testsupport.AssertExists(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000-copy.jpg")
	testsupport.AssertExists(t, fsys, "/out/2019/2019-12-31/VID_2019-12-31_235959.MOV")

	want := []string{".secure_hashes", "holiday.jpg", "note.txt"}
	if names := testsupport.FileNames(t, fsys, "/in"); !reflect.DeepEqual(names, want) {
		t.Fatalf("left behind = %v, want %v", names, want)
	}
	for _, move := range result.Moved {
		if move.Method != fsutil.MethodRename {
			t.Fatalf("expected rename on one volume, got %s", move.Method)
		}
	}
}

func TestRelocateNeverOverwrites(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000.jpg", "existing")
	testsupport.WriteFile(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000-1.jpg", "existing too")
	testsupport.WriteFile(t, fsys, "/in/IMG_2020-05-01_120000.jpg", "incoming")

	r := newRelocator(fsys)
	result, err := r.Relocate(context.Background(), "/in", []string{"IMG_2020-05-01_120000.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Moved) != 1 {
		t.Fatalf("expected one move, got %+v", result)
	}
	if got := result.Moved[0].Target; got != "/out/2020/2020-05-01/IMG_2020-05-01_120000-2.jpg" {
		t.Fatalf("unexpected target %s", got)
	}
	if body := testsupport.ReadFile(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000.jpg"); body != "existing" {
		t.Fatalf("existing file overwritten: %q", body)
	}
	if body := testsupport.ReadFile(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000-2.jpg"); body != "incoming" {
		t.Fatalf("moved content = %q", body)
	}
}

func TestRelocateCrossDeviceFallsBackToCopy(t *testing.T) {
	base := afero.NewMemMapFs()
	mtime := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	testsupport.WriteFileAt(t, base, "/in/IMG_2020-05-01_120000.jpg", "photo", mtime)
	fsys := testsupport.NewCrossDeviceFs(base)

	r := newRelocator(fsys)
	result, err := r.Relocate(context.Background(), "/in", []string{"IMG_2020-05-01_120000.jpg"})
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if len(result.Moved) != 1 || result.Moved[0].Method != fsutil.MethodCopy {
		t.Fatalf("expected copy fallback, got %+v", result.Moved)
	}
	if fsys.Renames != 1 {
		t.Fatalf("expected one rename attempt, got %d", fsys.Renames)
	}
	testsupport.AssertMissing(t, base, "/in/IMG_2020-05-01_120000.jpg")
	info, err := base.Stat("/out/2020/2020-05-01/IMG_2020-05-01_120000.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("modification time not preserved: %v", info.ModTime())
	}
}

func TestRelocateFileAlreadyInPlace(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000.jpg", "photo")
	r := newRelocator(fsys)
	date := pattern.Date{Year: 2020, Month: 5, Day: 1, Prefix: "IMG"}
	move, err := r.RelocateFile(context.Background(), "/out/2020/2020-05-01", "IMG_2020-05-01_120000.jpg", date)
	if err != nil {
		t.Fatal(err)
	}
	if move.Target != "" {
		t.Fatalf("file in its destination must stay put, got %+v", move)
	}
	testsupport.AssertMissing(t, fsys, "/out/2020/2020-05-01/IMG_2020-05-01_120000-1.jpg")
}

func TestRelocateVanishedFileIsSkipped(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/in", 0o755); err != nil {
		t.Fatal(err)
	}
	result, err := newRelocator(fsys).Relocate(context.Background(), "/in", []string{"IMG_2020-05-01_120000.jpg"})
	if err != nil {
		t.Fatalf("vanished file should not be an error: %v", err)
	}
	if result.Skipped != 1 || len(result.Moved) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRelocateCollectsFailures(t *testing.T) {
	base := afero.NewMemMapFs()
	testsupport.WriteFile(t, base, "/in/IMG_2020-05-01_120000.jpg", "a")
	testsupport.WriteFile(t, base, "/in/IMG_2020-05-02_120000.jpg", "b")
	fsys := &testsupport.FailingOpenFs{
		Fs:   testsupport.NewCrossDeviceFs(base),
		Fail: map[string]error{"/in/IMG_2020-05-01_120000.jpg": errors.New("media error")},
	}
	r := newRelocator(fsys)
	result, err := r.Relocate(context.Background(), "/in", []string{"IMG_2020-05-01_120000.jpg", "IMG_2020-05-02_120000.jpg"})
	if err == nil {
		t.Fatal("expected joined failure")
	}
	if len(result.Failures) != 1 || len(result.Moved) != 1 {
		t.Fatalf("expected one failure and one move, got %+v", result)
	}
	testsupport.AssertExists(t, base, "/in/IMG_2020-05-01_120000.jpg")
	testsupport.AssertMissing(t, base, "/out/2020/2020-05-01/IMG_2020-05-01_120000.jpg")
}

func TestFreePath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	got, err := FreePath(fsys, "/d", "a.jpg")
	if err != nil || got != "/d/a.jpg" {
		t.Fatalf("FreePath on empty dir = %q, %v", got, err)
	}
	testsupport.WriteFile(t, fsys, "/d/a.jpg", "x")
	testsupport.WriteFile(t, fsys, "/d/a-1.jpg", "x")
	got, err = FreePath(fsys, "/d", "a.jpg")
	if err != nil || got != "/d/a-2.jpg" {
		t.Fatalf("FreePath = %q, %v", got, err)
	}
	testsupport.WriteFile(t, fsys, "/d/README", "x")
	got, err = FreePath(fsys, "/d", "README")
	if err != nil || got != "/d/README-1" {
		t.Fatalf("FreePath without extension = %q, %v", got, err)
	}
}
