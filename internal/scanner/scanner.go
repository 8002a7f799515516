// Package scanner walks a directory tree one directory at a time.
//
// The walk keeps an explicit worklist instead of recursing, so arbitrarily
// deep trees never grow the stack. Each directory's sub-directories are
// snapshotted before its callback runs; directories the callback creates
// (shards, for instance) are not visited in the same walk. Symbolic links are
// neither followed nor reported.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"mediasort/internal/faults"
)

// Options configures a walk.
type Options struct {
	// Exclude lists directories that are skipped together with their subtrees.
	Exclude []string
}

// VisitFunc receives a directory and the sorted base names of its regular files.
type VisitFunc func(ctx context.Context, dir string, files []string) error

// Stats counts what a walk touched.
type Stats struct {
	Directories int
	Files       int
	Excluded    int
	Failed      int
}

// Walk visits root and every directory below it in sorted depth-first order.
// An error for one directory does not stop the walk; all of them are joined
// into the returned error. Context cancellation and configuration errors stop
// the walk between directories.
func Walk(ctx context.Context, fsys afero.Fs, root string, opts Options, fn VisitFunc) (Stats, error) {
	var stats Stats
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir != "" {
			excluded[filepath.Clean(dir)] = struct{}{}
		}
	}

	var errs []error
	stack := []string{filepath.Clean(root)}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		infos, err := afero.ReadDir(fsys, dir)
		if err != nil {
			stats.Failed++
			errs = append(errs, faults.Wrap(faults.ErrIO, "", "read directory", dir, err))
			continue
		}
		stats.Directories++

		var files, children []string
		for _, info := range infos {
			switch mode := info.Mode(); {
			case mode.IsRegular():
				files = append(files, info.Name())
			case mode.IsDir():
				child := filepath.Join(dir, info.Name())
				if _, skip := excluded[child]; skip {
					stats.Excluded++
					continue
				}
				children = append(children, child)
			}
		}
		sort.Strings(files)
		sort.Strings(children)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
		stats.Files += len(files)

		if err := fn(ctx, dir, files); err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			if faults.IsFatal(err) || ctx.Err() != nil {
				break
			}
		}
	}
	return stats, errors.Join(errs...)
}
