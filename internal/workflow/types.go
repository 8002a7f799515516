package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"mediasort/internal/journal"
	"mediasort/internal/listing"
)

// Command names one pass over the collection.
type Command string

const (
	CommandList  Command = "list"
	CommandMove  Command = "move"
	CommandDedup Command = "dedup"
	CommandSplit Command = "split"
)

// Commands lists every pass in the order the tool is usually applied.
var Commands = []Command{CommandList, CommandMove, CommandDedup, CommandSplit}

// ParseCommand validates a command name.
func ParseCommand(name string) (Command, error) {
	normalized := Command(strings.ToLower(strings.TrimSpace(name)))
	for _, cmd := range Commands {
		if cmd == normalized {
			return cmd, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", name)
}

// Mutates reports whether the command changes the collection.
func (c Command) Mutates() bool {
	return c != CommandList
}

// Recorder persists the mutations of a run.
type Recorder interface {
	RecordActions(ctx context.Context, actions []journal.Action) error
}

// Summary aggregates the outcome of one command over the whole tree.
type Summary struct {
	Command     Command
	RunID       string
	Directories int
	Files       int
	Failed      int

	// dedup
	Hashed     int
	Reused     int
	Deleted    int
	FreedBytes int64

	// move
	Moved     int
	Copied    int
	Ignored   int
	Unmatched int
	ExifDated int

	// split
	SplitDirectories int
	Shards           int
	Conflicts        int

	Skipped int
	Listing *listing.Report
}

// String renders a one-line description of the outcome.
func (s Summary) String() string {
	var parts []string
	switch s.Command {
	case CommandList:
		if s.Listing != nil {
			parts = append(parts, s.Listing.Summary())
		}
	case CommandDedup:
		parts = append(parts,
			fmt.Sprintf("%d files", s.Files),
			fmt.Sprintf("%d hashed", s.Hashed),
			fmt.Sprintf("%d cached", s.Reused),
			fmt.Sprintf("%d duplicates deleted (%s)", s.Deleted, humanize.IBytes(uint64(s.FreedBytes))),
		)
	case CommandMove:
		parts = append(parts,
			fmt.Sprintf("%d moved", s.Moved),
			fmt.Sprintf("%d unmatched", s.Unmatched),
			fmt.Sprintf("%d ignored", s.Ignored),
		)
		if s.ExifDated > 0 {
			parts = append(parts, fmt.Sprintf("%d dated from EXIF", s.ExifDated))
		}
		if s.Copied > 0 {
			parts = append(parts, fmt.Sprintf("%d copied across devices", s.Copied))
		}
	case CommandSplit:
		parts = append(parts,
			fmt.Sprintf("%d directories split", s.SplitDirectories),
			fmt.Sprintf("%d shards", s.Shards),
			fmt.Sprintf("%d conflicts", s.Conflicts),
		)
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d directories failed", s.Failed))
	}
	return strings.Join(parts, ", ")
}
