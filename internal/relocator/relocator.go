package relocator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mediasort/internal/digestcache"
	"mediasort/internal/faults"
	"mediasort/internal/fsutil"
	"mediasort/internal/logging"
	"mediasort/internal/pattern"
)

// maxCollisionAttempts bounds the suffix search for one file.
const maxCollisionAttempts = 10000

// Options configures a Relocator.
type Options struct {
	OutputRoot  string
	Extensions  map[string]struct{} // lowercase, dot-prefixed
	SidecarName string
	// ExifFallback reads the EXIF capture time of media files whose names
	// carry no date.
	ExifFallback bool
}

// Move describes one relocated file.
type Move struct {
	Source string
	Target string
	Method fsutil.Method
	Date   pattern.Date
}

// Failure records a file that could not be moved.
type Failure struct {
	Name string
	Err  error
}

// Result summarizes the pass over one directory.
type Result struct {
	Directory string
	Moved     []Move
	Ignored   int // extension not in the allow-list
	Unmatched int // media file without a dated name
	ExifDated int // dated from EXIF rather than the filename
	Skipped   int // vanished or already in place
	Failures  []Failure
}

// Relocator moves matched media files into dated directories.
type Relocator struct {
	fsys       afero.Fs
	outputRoot string
	extensions map[string]struct{}
	sidecar    string
	exif       bool
	matcher    *pattern.Matcher
	logger     *slog.Logger
}

// New constructs a Relocator writing below opts.OutputRoot.
func New(fsys afero.Fs, opts Options, logger *slog.Logger) *Relocator {
	return &Relocator{
		fsys:       fsys,
		outputRoot: filepath.Clean(opts.OutputRoot),
		extensions: opts.Extensions,
		sidecar:    opts.SidecarName,
		exif:       opts.ExifFallback,
		matcher:    pattern.NewMatcher(),
		logger:     logging.NewComponentLogger(logger, "relocator"),
	}
}

// Destination returns outputRoot/YYYY/YYYY-MM-DD for date.
func (r *Relocator) Destination(date pattern.Date) string {
	return filepath.Join(r.outputRoot, date.YearDir(), date.DayDir())
}

// IsMedia reports whether filename carries an allow-listed extension.
func (r *Relocator) IsMedia(filename string) bool {
	_, ok := r.extensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Relocate moves every eligible file of dir. Per-file failures are collected
// in the result and joined into the returned error; the remaining files are
// still processed.
func (r *Relocator) Relocate(ctx context.Context, dir string, files []string) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)
	result := Result{Directory: dir}
	var errs []error

	for _, name := range files {
		if digestcache.IsReservedName(name, r.sidecar) || !r.IsMedia(name) {
			result.Ignored++
			continue
		}
		date, ok := r.matcher.Match(name)
		if !ok && r.exif {
			if date, ok = ExifDate(r.fsys, filepath.Join(dir, name)); ok {
				result.ExifDated++
			}
		}
		if !ok {
			result.Unmatched++
			logger.Debug("no capture date in filename", logging.String("file", name))
			continue
		}
		move, err := r.RelocateFile(ctx, dir, name, date)
		switch {
		case err == nil && move.Target == "":
			result.Skipped++
		case err == nil:
			result.Moved = append(result.Moved, move)
		case errors.Is(err, fs.ErrNotExist):
			result.Skipped++
			logger.Debug("file vanished before move", logging.String("file", name))
		default:
			result.Failures = append(result.Failures, Failure{Name: name, Err: err})
			errs = append(errs, err)
			logging.WarnWithContext(logger, "move failed", "relocate_failed",
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the output root"),
				logging.String(logging.FieldImpact, "file left in place; pass continued"),
			)
		}
	}

	logger.Info("move pass complete",
		logging.Int("moved", len(result.Moved)),
		logging.Int("ignored", result.Ignored),
		logging.Int("unmatched", result.Unmatched),
		logging.Int("exif_dated", result.ExifDated),
		logging.Int("failed", len(result.Failures)),
	)
	return result, errors.Join(errs...)
}

// RelocateFile moves dir/filename into the destination for date. A file that
// already sits in its destination directory is left alone and a zero Move is
// returned.
func (r *Relocator) RelocateFile(ctx context.Context, dir, filename string, date pattern.Date) (Move, error) {
	logger := logging.WithContext(ctx, r.logger)
	source := filepath.Join(dir, filename)
	destDir := r.Destination(date)
	if filepath.Clean(dir) == destDir {
		return Move{}, nil
	}
	if err := fsutil.EnsureDir(r.fsys, destDir); err != nil {
		return Move{}, faults.Wrap(faults.ErrIO, "move", "ensure destination", destDir, err)
	}

	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		target, err := FreePath(r.fsys, destDir, filename)
		if err != nil {
			return Move{}, faults.Wrap(faults.ErrIO, "move", "resolve destination", filename, err)
		}
		method, err := fsutil.Move(r.fsys, source, target)
		if errors.Is(err, fs.ErrExist) {
			logger.Debug("destination claimed during move; retrying", logging.String("target", target))
			continue
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Move{}, err
			}
			return Move{}, faults.Wrap(faults.ErrIO, "move", "move file", source+" -> "+target, err)
		}
		logger.Info("moved file",
			logging.String("source", source),
			logging.String("target", target),
			logging.String("method", string(method)),
		)
		return Move{Source: source, Target: target, Method: method, Date: date}, nil
	}
	return Move{}, faults.Wrap(faults.ErrCollision, "move", "resolve destination",
		fmt.Sprintf("no free name for %s after %d attempts", filename, maxCollisionAttempts), nil)
}

// FreePath returns dir/filename, or the first dir/stem-N.ext that does not
// exist yet.
func FreePath(fsys afero.Fs, dir, filename string) (string, error) {
	candidate := filepath.Join(dir, filename)
	taken, err := fsutil.Exists(fsys, candidate)
	if err != nil || !taken {
		return candidate, err
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 1; n <= maxCollisionAttempts; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		taken, err = fsutil.Exists(fsys, candidate)
		if err != nil || !taken {
			return candidate, err
		}
	}
	return "", fmt.Errorf("%w: %s", fs.ErrExist, filepath.Join(dir, filename))
}
