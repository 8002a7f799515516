// Package splitter breaks directories holding more files than a threshold into
// numbered shard sub-directories named "<basename> #<n>".
package splitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"mediasort/internal/digestcache"
	"mediasort/internal/faults"
	"mediasort/internal/fsutil"
	"mediasort/internal/logging"
)

// Options configures a Splitter.
type Options struct {
	Threshold   int
	SidecarName string
}

// Move describes one file placed into a shard.
type Move struct {
	Source string
	Target string
	Shard  int
}

// Result summarizes the pass over one directory.
type Result struct {
	Directory string
	Files     int
	Shards    []string
	Moved     []Move
	Conflicts []string // files left in place because the shard already held that name
	Skipped   int      // files that vanished before their move
}

// Splitter distributes files of oversized directories into shards.
type Splitter struct {
	fsys      afero.Fs
	threshold int
	sidecar   string
	logger    *slog.Logger
}

// New constructs a Splitter. Threshold must be positive.
func New(fsys afero.Fs, opts Options, logger *slog.Logger) (*Splitter, error) {
	if opts.Threshold <= 0 {
		return nil, faults.Wrap(faults.ErrConfiguration, "split", "validate threshold",
			fmt.Sprintf("threshold must be positive, got %d", opts.Threshold), nil)
	}
	return &Splitter{
		fsys:      fsys,
		threshold: opts.Threshold,
		sidecar:   opts.SidecarName,
		logger:    logging.NewComponentLogger(logger, "splitter"),
	}, nil
}

// ShardName returns the directory name of shard n for a directory called base.
func ShardName(base string, n int) string {
	return fmt.Sprintf("%s #%d", base, n)
}

// ShardOf returns the 1-based shard number for the file at sorted index i.
func ShardOf(i, threshold int) int {
	return i/threshold + 1
}

// Split shards dir when it holds more than the threshold of data files. The
// sidecar and its temp file always stay in dir. Existing shard directories are
// reused and files already present in a shard are never overwritten.
func (s *Splitter) Split(ctx context.Context, dir string, files []string) (Result, error) {
	logger := logging.WithContext(ctx, s.logger)
	result := Result{Directory: dir}

	names := make([]string, 0, len(files))
	for _, name := range files {
		if digestcache.IsReservedName(name, s.sidecar) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	result.Files = len(names)
	if len(names) <= s.threshold {
		return result, nil
	}

	base := filepath.Base(filepath.Clean(dir))
	current := 0
	var shardDir string
	for i, name := range names {
		if n := ShardOf(i, s.threshold); n != current {
			current = n
			shardDir = filepath.Join(dir, ShardName(base, n))
			if err := fsutil.EnsureDir(s.fsys, shardDir); err != nil {
				return result, faults.Wrap(faults.ErrIO, "split", "create shard", shardDir, err)
			}
			result.Shards = append(result.Shards, shardDir)
		}

		source := filepath.Join(dir, name)
		target := filepath.Join(shardDir, name)
		_, err := fsutil.Move(s.fsys, source, target)
		switch {
		case err == nil:
			result.Moved = append(result.Moved, Move{Source: source, Target: target, Shard: current})
		case errors.Is(err, fs.ErrExist):
			result.Conflicts = append(result.Conflicts, name)
			logging.WarnWithContext(logger, "shard already holds file", "split_conflict",
				logging.String("file", name),
				logging.String("shard", shardDir),
				logging.String(logging.FieldErrorHint, "run dedup on the shard or rename one of the files"),
				logging.String(logging.FieldImpact, "file left in place; pass continued"),
			)
		case errors.Is(err, fs.ErrNotExist):
			result.Skipped++
		default:
			return result, faults.Wrap(faults.ErrIO, "split", "move file", source+" -> "+target, err)
		}
	}

	logger.Info("split directory",
		logging.Int("files", result.Files),
		logging.Int("shards", len(result.Shards)),
		logging.Int("moved", len(result.Moved)),
		logging.Int("conflicts", len(result.Conflicts)),
	)
	return result, nil
}
