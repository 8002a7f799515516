// Package digestcache maintains the per-directory content digest cache used by
// the dedup pass.
//
// Each directory carries one reserved sidecar file holding CSV rows of
// filename, BLAKE2b-256 digest (hex), size in bytes and modification time in
// epoch seconds. An entry is trusted only while the file's current size and
// modification time match the recorded values exactly; anything else drops the
// entry on load and the digest is recomputed lazily the next time it is
// requested. A malformed row is fatal for the load: silently skipping rows
// could hide the loss of a whole directory's cache.
//
// The cache is scoped to exactly one directory and is not safe for concurrent
// use.
package digestcache
