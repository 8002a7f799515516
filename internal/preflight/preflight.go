package preflight

import (
	"fmt"
	"strings"

	"mediasort/internal/config"
	"mediasort/internal/faults"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Access selects the permissions a directory must grant.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

// RunAll executes the checks needed by a pass. Read-only passes (list) need
// only a readable input root; mutating passes also need a writable input and a
// usable output root. The log directory only has to be creatable, so the
// checks can run before anything is written.
func RunAll(cfg *config.Config, access Access, needsOutput bool) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, access),
		CheckCreatable("Log directory", cfg.Paths.LogDir),
	}
	if needsOutput {
		results = append(results,
			CheckDistinctRoots(cfg.Paths.InputDir, cfg.Paths.OutputDir),
			CheckCreatable("Output directory", cfg.Paths.OutputDir),
		)
	}
	return results
}

// Verify converts failed results into a configuration error.
func Verify(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrConfiguration, "preflight", "check roots", strings.Join(failed, "; "), nil)
}
