package workflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"mediasort/internal/config"
	"mediasort/internal/faults"
	"mediasort/internal/journal"
	"mediasort/internal/runinfo"
	"mediasort/internal/testsupport"
)

type memoryRecorder struct {
	actions []journal.Action
	err     error
}

func (m *memoryRecorder) RecordActions(_ context.Context, actions []journal.Action) error {
	if m.err != nil {
		return m.err
	}
	m.actions = append(m.actions, actions...)
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Paths.InputDir = "/photos"
	cfg.Paths.OutputDir = "/photos/out"
	cfg.Paths.LogDir = "/photos/log"
	return &cfg
}

func TestWorkedExampleDedupThenMove(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/photos/IMG_2020-05-01_120000.jpg", "photo")
	testsupport.WriteFile(t, fsys, "/photos/IMG_2020-05-01_120000-copy.jpg", "photo")
	testsupport.WriteFile(t, fsys, "/photos/note.txt", "text")

	rec := &memoryRecorder{}
	runner := NewRunner(fsys, testConfig(), nil, rec)
	ctx := runinfo.WithRunID(context.Background(), "run-1")

	summary, err := runner.Run(ctx, CommandDedup)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if summary.Deleted != 1 || summary.Hashed != 3 || summary.FreedBytes != 5 {
		t.Fatalf("unexpected dedup summary: %+v", summary)
	}
	if len(rec.actions) != 1 {
		t.Fatalf("expected one recorded deletion, got %+v", rec.actions)
	}
	deletion := rec.actions[0]
	if deletion.RunID != "run-1" || deletion.Kind != journal.KindDelete ||
		deletion.Source != "/photos/IMG_2020-05-01_120000.jpg" || deletion.Target != "/photos/IMG_2020-05-01_120000-copy.jpg" {
		t.Fatalf("unexpected deletion record: %+v", deletion)
	}

	summary, err = runner.Run(ctx, CommandMove)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if summary.Moved != 1 || summary.Ignored != 2 {
		t.Fatalf("unexpected move summary: %+v", summary)
	}
	testsupport.AssertExists(t, fsys, "/photos/out/2020/2020-05-01/IMG_2020-05-01_120000-copy.jpg")
	if got := testsupport.FileNames(t, fsys, "/photos"); !reflect.DeepEqual(got, []string{".secure_hashes", "note.txt"}) {
		t.Fatalf("input left with %v", got)
	}

	// The output root lives inside the input tree and must not be revisited.
	again, err := runner.Run(ctx, CommandMove)
	if err != nil {
		t.Fatal(err)
	}
	if again.Moved != 0 {
		t.Fatalf("second move relocated files again: %+v", again)
	}
}

func TestDedupIsolatesCorruptDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/photos/a/x.jpg", "same")
	testsupport.WriteFile(t, fsys, "/photos/a/y.jpg", "same")
	testsupport.WriteFile(t, fsys, "/photos/a/.secure_hashes", "garbage\n")
	testsupport.WriteFile(t, fsys, "/photos/b/x.jpg", "same")
	testsupport.WriteFile(t, fsys, "/photos/b/y.jpg", "same")

	summary, err := NewRunner(fsys, testConfig(), nil, nil).Run(context.Background(), CommandDedup)
	if !errors.Is(err, faults.ErrCacheCorrupt) {
		t.Fatalf("expected cache corruption to surface, got %v", err)
	}
	if !strings.Contains(err.Error(), "/photos/a") {
		t.Fatalf("error should name the directory: %v", err)
	}
	if summary.Failed != 1 || summary.Deleted != 1 {
		t.Fatalf("expected one failed directory and one deletion elsewhere, got %+v", summary)
	}
	testsupport.AssertExists(t, fsys, "/photos/a/y.jpg")
	testsupport.AssertMissing(t, fsys, "/photos/b/y.jpg")
}

func TestSplitShardsOversizedDirectories(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		testsupport.WriteFile(t, fsys, "/photos/2020/"+name, name)
	}
	cfg := testConfig()
	cfg.Split.Threshold = 2
	rec := &memoryRecorder{}

	summary, err := NewRunner(fsys, cfg, nil, rec).Run(context.Background(), CommandSplit)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if summary.SplitDirectories != 1 || summary.Shards != 2 || len(rec.actions) != 3 {
		t.Fatalf("unexpected split summary: %+v (%d actions)", summary, len(rec.actions))
	}
	testsupport.AssertExists(t, fsys, "/photos/2020/2020 #2/c.jpg")
}

func TestSplitRejectsInvalidThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Split.Threshold = 0
	_, err := NewRunner(afero.NewMemMapFs(), cfg, nil, nil).Run(context.Background(), CommandSplit)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestListWritesIntoLogDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/photos/a.jpg", "a")
	testsupport.WriteFile(t, fsys, "/photos/log/mediasort.log", "old log")

	summary, err := NewRunner(fsys, testConfig(), nil, nil).Run(context.Background(), CommandList)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if summary.Listing == nil || summary.Files != 1 {
		t.Fatalf("unexpected list summary: %+v", summary)
	}
	if !strings.HasPrefix(summary.Listing.ListingPath, "/photos/log/files_listing-") {
		t.Fatalf("listing written to %s", summary.Listing.ListingPath)
	}
}

func TestJournalFailureDoesNotFailPass(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testsupport.WriteFile(t, fsys, "/photos/a.jpg", "same")
	testsupport.WriteFile(t, fsys, "/photos/b.jpg", "same")
	rec := &memoryRecorder{err: errors.New("disk full")}

	summary, err := NewRunner(fsys, testConfig(), nil, rec).Run(context.Background(), CommandDedup)
	if err != nil {
		t.Fatalf("journal failure leaked into pass: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestExclusions(t *testing.T) {
	cfg := testConfig()
	cfg.Paths.LogDir = "/var/log/mediasort"
	runner := NewRunner(afero.NewMemMapFs(), cfg, nil, nil)
	if got := runner.Exclusions(); !reflect.DeepEqual(got, []string{"/photos/out"}) {
		t.Fatalf("Exclusions = %v", got)
	}
}

func TestParseCommand(t *testing.T) {
	for _, name := range []string{"list", " MOVE ", "dedup", "split"} {
		if _, err := ParseCommand(name); err != nil {
			t.Fatalf("ParseCommand(%q): %v", name, err)
		}
	}
	if _, err := ParseCommand("sort"); err == nil {
		t.Fatal("expected unknown command error")
	}
	if CommandList.Mutates() || !CommandDedup.Mutates() {
		t.Fatal("unexpected Mutates result")
	}
}
