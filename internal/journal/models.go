package journal

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Kind classifies a recorded mutation.
type Kind string

const (
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
	KindSplit  Kind = "split"
)

// Run is one command invocation.
type Run struct {
	ID           string
	Command      string
	InputDir     string
	Status       Status
	StartedAt    time.Time
	FinishedAt   *time.Time
	Summary      string
	ErrorMessage string
	ActionCount  int
}

// Duration returns the elapsed run time, zero while the run is still open.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Action is one filesystem mutation performed by a run. For deletions Target
// holds the surviving duplicate.
type Action struct {
	ID     int64
	RunID  string
	Kind   Kind
	Source string
	Target string
	Digest string
	At     time.Time
}
