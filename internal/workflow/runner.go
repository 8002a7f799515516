package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/config"
	"mediasort/internal/dedup"
	"mediasort/internal/fsutil"
	"mediasort/internal/journal"
	"mediasort/internal/listing"
	"mediasort/internal/logging"
	"mediasort/internal/relocator"
	"mediasort/internal/runinfo"
	"mediasort/internal/scanner"
	"mediasort/internal/splitter"
)

// Runner executes commands against the configured collection.
type Runner struct {
	fsys     afero.Fs
	cfg      *config.Config
	logger   *slog.Logger
	recorder Recorder
}

// NewRunner wires a Runner. recorder may be nil when the journal is disabled.
func NewRunner(fsys afero.Fs, cfg *config.Config, logger *slog.Logger, recorder Recorder) *Runner {
	return &Runner{
		fsys:     fsys,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		recorder: recorder,
	}
}

// Exclusions returns the directories a walk of the input tree must skip: the
// output root and the log directory whenever they live inside it.
func (r *Runner) Exclusions() []string {
	input := filepath.Clean(r.cfg.Paths.InputDir)
	var out []string
	for _, dir := range []string{r.cfg.Paths.OutputDir, r.cfg.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if within(input, filepath.Clean(dir)) {
			out = append(out, filepath.Clean(dir))
		}
	}
	return out
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Run executes cmd over the input tree. The summary is always populated with
// whatever was processed; the error joins every directory that failed.
func (r *Runner) Run(ctx context.Context, cmd Command) (Summary, error) {
	runID, _ := runinfo.RunIDFromContext(ctx)
	ctx = runinfo.WithPass(ctx, string(cmd))
	logger := logging.WithContext(ctx, r.logger)
	summary := Summary{Command: cmd, RunID: runID}
	root := r.cfg.Paths.InputDir
	opts := scanner.Options{Exclude: r.Exclusions()}
	start := time.Now()

	logger.Info("pass started", logging.String("root", root), logging.Any("excluded", opts.Exclude))

	var (
		visit scanner.VisitFunc
		err   error
	)
	switch cmd {
	case CommandList:
		lister := listing.New(r.fsys, r.cfg.Paths.LogDir, r.logger)
		report, listErr := lister.List(ctx, root, opts)
		summary.Listing = &report
		summary.Directories = report.Directories
		summary.Files = report.Files
		r.finish(logger, summary, start, listErr)
		return summary, listErr
	case CommandDedup:
		visit = r.dedupVisitor(&summary)
	case CommandMove:
		visit = r.moveVisitor(&summary)
	case CommandSplit:
		visit, err = r.splitVisitor(&summary)
		if err != nil {
			return summary, err
		}
	default:
		return summary, fmt.Errorf("unknown command %q", cmd)
	}

	stats, walkErr := scanner.Walk(ctx, r.fsys, root, opts, func(ctx context.Context, dir string, files []string) error {
		return visit(runinfo.WithDirectory(ctx, dir), dir, files)
	})
	summary.Directories = stats.Directories
	summary.Files = stats.Files
	summary.Failed = stats.Failed
	r.finish(logger, summary, start, walkErr)
	return summary, walkErr
}

func (r *Runner) finish(logger *slog.Logger, summary Summary, start time.Time, err error) {
	attrs := []logging.Attr{
		logging.Int("directories", summary.Directories),
		logging.Int("files", summary.Files),
		logging.String("summary", summary.String()),
		logging.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.ErrorWithContext(logger, "pass finished with failures", "pass_failed", attrs...)
		return
	}
	logger.Info("pass finished", logging.Args(attrs...)...)
}

func (r *Runner) dedupVisitor(summary *Summary) scanner.VisitFunc {
	d := dedup.New(r.fsys, dedup.Options{
		SidecarName: r.cfg.Dedup.SidecarName,
		BlockSize:   r.cfg.Dedup.BlockSize,
	}, r.logger)
	return func(ctx context.Context, dir string, files []string) error {
		result, err := d.Dedupe(ctx, dir, files)
		summary.Hashed += result.Hashed
		summary.Reused += result.Reused
		summary.Skipped += result.Skipped
		summary.Deleted += len(result.Deleted)
		summary.FreedBytes += result.FreedBytes()

		actions := make([]journal.Action, 0, len(result.Deleted))
		for _, deletion := range result.Deleted {
			actions = append(actions, journal.Action{
				Kind:   journal.KindDelete,
				Source: filepath.Join(dir, deletion.Name),
				Target: filepath.Join(dir, deletion.Survivor),
				Digest: deletion.Digest,
			})
		}
		r.record(ctx, actions)
		return err
	}
}

func (r *Runner) moveVisitor(summary *Summary) scanner.VisitFunc {
	reloc := relocator.New(r.fsys, relocator.Options{
		OutputRoot:   r.cfg.Paths.OutputDir,
		Extensions:   r.cfg.ExtensionSet(),
		SidecarName:  r.cfg.Dedup.SidecarName,
		ExifFallback: r.cfg.Move.ExifFallback,
	}, r.logger)
	return func(ctx context.Context, dir string, files []string) error {
		result, err := reloc.Relocate(ctx, dir, files)
		summary.ExifDated += result.ExifDated
		summary.Moved += len(result.Moved)
		summary.Ignored += result.Ignored
		summary.Unmatched += result.Unmatched
		summary.Skipped += result.Skipped

		actions := make([]journal.Action, 0, len(result.Moved))
		for _, move := range result.Moved {
			if move.Method == fsutil.MethodCopy {
				summary.Copied++
			}
			actions = append(actions, journal.Action{Kind: journal.KindMove, Source: move.Source, Target: move.Target})
		}
		r.record(ctx, actions)
		return err
	}
}

func (r *Runner) splitVisitor(summary *Summary) (scanner.VisitFunc, error) {
	s, err := splitter.New(r.fsys, splitter.Options{
		Threshold:   r.cfg.Split.Threshold,
		SidecarName: r.cfg.Dedup.SidecarName,
	}, r.logger)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, dir string, files []string) error {
		result, err := s.Split(ctx, dir, files)
		if len(result.Shards) > 0 {
			summary.SplitDirectories++
		}
		summary.Shards += len(result.Shards)
		summary.Conflicts += len(result.Conflicts)
		summary.Skipped += result.Skipped

		actions := make([]journal.Action, 0, len(result.Moved))
		for _, move := range result.Moved {
			actions = append(actions, journal.Action{Kind: journal.KindSplit, Source: move.Source, Target: move.Target})
		}
		r.record(ctx, actions)
		return err
	}, nil
}

// record stamps actions with the run ID and hands them to the recorder. A
// journal failure never fails the pass.
func (r *Runner) record(ctx context.Context, actions []journal.Action) {
	if r.recorder == nil || len(actions) == 0 {
		return
	}
	runID, _ := runinfo.RunIDFromContext(ctx)
	now := time.Now()
	for i := range actions {
		actions[i].RunID = runID
		actions[i].At = now
	}
	if err := r.recorder.RecordActions(ctx, actions); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.Int("actions", len(actions)),
			logging.String(logging.FieldErrorHint, "check the journal database in the log directory"),
			logging.String(logging.FieldImpact, "history incomplete; pass continued"),
		)
	}
}
