package dedup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"mediasort/internal/digestcache"
	"mediasort/internal/logging"
)

// Options configures the digest cache used by each pass.
type Options struct {
	SidecarName string
	BlockSize   int
}

// Deletion records one removed duplicate.
type Deletion struct {
	Name     string
	Survivor string
	Digest   string
	Size     int64
}

// Result summarizes the pass over one directory.
type Result struct {
	Directory string
	Files     int
	Hashed    int
	Reused    int
	Skipped   int
	Groups    int
	Deleted   []Deletion
}

// FreedBytes sums the sizes of the deleted files.
func (r Result) FreedBytes() int64 {
	var total int64
	for _, d := range r.Deleted {
		total += d.Size
	}
	return total
}

// Deduplicator runs the dedup pass directory by directory.
type Deduplicator struct {
	fsys   afero.Fs
	opts   Options
	logger *slog.Logger
}

// New constructs a Deduplicator over fsys.
func New(fsys afero.Fs, opts Options, logger *slog.Logger) *Deduplicator {
	if opts.SidecarName == "" {
		opts.SidecarName = digestcache.DefaultSidecarName
	}
	return &Deduplicator{fsys: fsys, opts: opts, logger: logging.NewComponentLogger(logger, "dedup")}
}

// Dedupe removes duplicates among files (base names inside dir). The cache
// is persisted once at the end. A corrupt sidecar or an unreadable file aborts
// the directory before anything is deleted.
func (d *Deduplicator) Dedupe(ctx context.Context, dir string, files []string) (Result, error) {
	logger := logging.WithContext(ctx, d.logger)
	result := Result{Directory: dir}

	candidates := make([]string, 0, len(files))
	for _, name := range files {
		if digestcache.IsReservedName(name, d.opts.SidecarName) {
			continue
		}
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	result.Files = len(candidates)

	cache, err := digestcache.Load(d.fsys, dir, candidates, digestcache.Options{
		SidecarName: d.opts.SidecarName,
		BlockSize:   d.opts.BlockSize,
		Logger:      d.logger,
	})
	if err != nil {
		return result, err
	}

	buckets := make(map[string][]string)
	for _, name := range candidates {
		digest, err := cache.DigestOf(name)
		switch {
		case err == nil:
			buckets[digest] = append(buckets[digest], name)
		case errors.Is(err, fs.ErrNotExist):
			result.Skipped++
			logger.Debug("file vanished before hashing", logging.String("file", name))
		case errors.Is(err, digestcache.ErrChanged):
			result.Skipped++
			logging.WarnWithContext(logger, "file changed while hashing", "dedup_file_changed",
				logging.String("file", name),
				logging.String(logging.FieldErrorHint, "rerun dedup once the file is no longer being written"),
			)
		default:
			return result, err
		}
	}
	stats := cache.Stats()
	result.Hashed = stats.Hashed
	result.Reused = stats.Reused

	digests := make([]string, 0, len(buckets))
	for digest, members := range buckets {
		if len(members) > 1 {
			digests = append(digests, digest)
		}
	}
	sort.Strings(digests)
	result.Groups = len(digests)

	for _, digest := range digests {
		members := buckets[digest]
		sort.Strings(members)
		survivor := members[0]
		for _, name := range members[1:] {
			deletion, ok := d.remove(logger, cache, dir, name, survivor, digest)
			if !ok {
				result.Skipped++
				continue
			}
			result.Deleted = append(result.Deleted, deletion)
		}
	}

	if err := cache.Save(); err != nil {
		return result, err
	}
	logger.Info("dedup pass complete",
		logging.Int("files", result.Files),
		logging.Int("hashed", result.Hashed),
		logging.Int("reused", result.Reused),
		logging.Int("deleted", len(result.Deleted)),
		logging.Int("skipped", result.Skipped),
	)
	return result, nil
}

// unchanged reports whether dir/name is still a regular file with the size
// and modification time its cached digest was computed from.
func (d *Deduplicator) unchanged(cache *digestcache.Cache, dir, name string) (bool, error) {
	info, err := d.fsys.Stat(filepath.Join(dir, name))
	if err != nil {
		return false, err
	}
	entry, ok := cache.Lookup(name)
	return ok && info.Mode().IsRegular() && entry.Matches(info.Size(), info.ModTime()), nil
}

func (d *Deduplicator) remove(logger *slog.Logger, cache *digestcache.Cache, dir, name, survivor, digest string) (Deletion, bool) {
	path := filepath.Join(dir, name)
	if ok, err := d.unchanged(cache, dir, survivor); !ok {
		logging.WarnWithContext(logger, "survivor changed before deletion", "dedup_survivor_changed",
			logging.String("file", name),
			logging.String("survivor", survivor),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun dedup once the directory is quiet"),
			logging.String(logging.FieldImpact, "duplicate kept; pass continued"),
		)
		return Deletion{}, false
	}
	ok, err := d.unchanged(cache, dir, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cache.Forget(name)
		logger.Debug("duplicate vanished before deletion", logging.String("file", name))
		return Deletion{}, false
	case !ok:
		cache.Forget(name)
		logging.WarnWithContext(logger, "duplicate changed before deletion", "dedup_file_changed",
			logging.String("file", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun dedup once the file is no longer being written"),
			logging.String(logging.FieldImpact, "file kept; pass continued"),
		)
		return Deletion{}, false
	}
	if err := d.fsys.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cache.Forget(name)
			return Deletion{}, false
		}
		logging.WarnWithContext(logger, "duplicate deletion failed", "dedup_delete_failed",
			logging.String("file", name),
			logging.String("survivor", survivor),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check write permission on the directory"),
			logging.String(logging.FieldImpact, "duplicate kept; pass continued"),
		)
		return Deletion{}, false
	}
	var size int64
	if entry, ok := cache.Lookup(name); ok {
		size = entry.Size
	}
	cache.Forget(name)
	logger.Info("deleted duplicate",
		logging.String("file", name),
		logging.String("survivor", survivor),
		logging.String("digest", digest),
	)
	return Deletion{Name: name, Survivor: survivor, Digest: digest, Size: size}, true
}
