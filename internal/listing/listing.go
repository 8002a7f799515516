// Package listing inventories a collection: it writes a listing file with one
// path per line followed by per-extension counts, and returns the same data
// as a Report for display.
package listing

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mediasort/internal/faults"
	"mediasort/internal/fsutil"
	"mediasort/internal/logging"
	"mediasort/internal/scanner"
)

// FilePrefix starts every listing file name.
const FilePrefix = "files_listing"

// ExtensionStat aggregates the files sharing one extension.
type ExtensionStat struct {
	Extension string
	Count     int
	Bytes     int64
}

// Report is the outcome of one listing.
type Report struct {
	Root        string
	ListingPath string
	Directories int
	Files       int
	Bytes       int64
	Extensions  []ExtensionStat // descending count, then extension
}

// Summary renders a one-line human summary with grouped numbers.
func (r Report) Summary() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d files in %d directories, %s", r.Files, r.Directories, humanize.IBytes(uint64(r.Bytes)))
}

// Lister writes listing files into a log directory.
type Lister struct {
	fsys   afero.Fs
	logDir string
	now    func() time.Time
	logger *slog.Logger
}

// New constructs a Lister writing into logDir.
func New(fsys afero.Fs, logDir string, logger *slog.Logger) *Lister {
	return &Lister{fsys: fsys, logDir: logDir, now: time.Now, logger: logging.NewComponentLogger(logger, "listing")}
}

// List walks root and writes files_listing-<timestamp>.txt into the log
// directory. Directories that cannot be read are reported in the error while
// the listing still covers everything else.
func (l *Lister) List(ctx context.Context, root string, opts scanner.Options) (Report, error) {
	logger := logging.WithContext(ctx, l.logger)
	if err := fsutil.EnsureDir(l.fsys, l.logDir); err != nil {
		return Report{}, faults.Wrap(faults.ErrIO, "list", "ensure log dir", l.logDir, err)
	}
	name := fmt.Sprintf("%s-%s.txt", FilePrefix, l.now().Format("2006-01-02T15:04:05.000000"))
	report := Report{Root: root, ListingPath: filepath.Join(l.logDir, name)}

	file, err := l.fsys.Create(report.ListingPath)
	if err != nil {
		return report, faults.Wrap(faults.ErrIO, "list", "create listing", report.ListingPath, err)
	}
	defer file.Close()
	out := bufio.NewWriter(file)

	stats := make(map[string]*ExtensionStat)
	walkStats, walkErr := scanner.Walk(ctx, l.fsys, root, opts, func(_ context.Context, dir string, files []string) error {
		for _, name := range files {
			path := filepath.Join(dir, name)
			if _, err := fmt.Fprintln(out, path); err != nil {
				return err
			}
			var size int64
			if info, err := l.fsys.Stat(path); err == nil {
				size = info.Size()
			}
			ext := filepath.Ext(name)
			stat, ok := stats[ext]
			if !ok {
				stat = &ExtensionStat{Extension: ext}
				stats[ext] = stat
			}
			stat.Count++
			stat.Bytes += size
			report.Files++
			report.Bytes += size
		}
		return nil
	})
	report.Directories = walkStats.Directories
	report.Extensions = sortedStats(stats)

	fmt.Fprintf(out, "=== %d files in the collection ===\n", report.Files)
	fmt.Fprintln(out, "--- Ordered list of file extensions ---")
	for _, stat := range report.Extensions {
		fmt.Fprintf(out, "%-8s: %d\n", stat.Extension, stat.Count)
	}
	if err := out.Flush(); err != nil {
		return report, faults.Wrap(faults.ErrIO, "list", "write listing", report.ListingPath, err)
	}
	if err := file.Close(); err != nil {
		return report, faults.Wrap(faults.ErrIO, "list", "close listing", report.ListingPath, err)
	}

	logger.Info("listing written",
		logging.String("path", report.ListingPath),
		logging.Int("files", report.Files),
		logging.Int("extensions", len(report.Extensions)),
	)
	return report, walkErr
}

func sortedStats(stats map[string]*ExtensionStat) []ExtensionStat {
	out := make([]ExtensionStat, 0, len(stats))
	for _, stat := range stats {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Extension < out[j].Extension
	})
	return out
}
