package digestcache

import (
	"strconv"
	"time"
)

// Stamp is a modification time in epoch seconds, the resolution the sidecar
// stores. Comparisons always go through StampOf so a value written on one run
// compares equal to a fresh stat on the next.
type Stamp float64

// StampOf converts a filesystem modification time into a Stamp.
func StampOf(t time.Time) Stamp {
	return Stamp(float64(t.Unix()) + float64(t.Nanosecond())*1e-9)
}

// String renders the shortest decimal that parses back to the same stamp.
func (s Stamp) String() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// Entry is the last known content fingerprint of one file.
type Entry struct {
	Filename   string
	Digest     string
	Size       int64
	ModifiedAt Stamp
}

// Matches reports whether the entry still describes a file of the given size
// and modification time.
func (e Entry) Matches(size int64, modTime time.Time) bool {
	return e.Size == size && e.ModifiedAt == StampOf(modTime)
}

// Stats counts what happened to the cache during a pass.
type Stats struct {
	Loaded  int // rows read from the sidecar
	Dropped int // rows discarded as stale or absent
	Hashed  int // digests computed from file content
	Reused  int // digests served from a valid entry
}
