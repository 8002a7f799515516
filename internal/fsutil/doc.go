// Package fsutil holds the afero-backed file primitives shared by the move and
// split passes: idempotent directory creation, existence checks that tolerate
// races, verified copies that refuse to overwrite, and a move that prefers an
// atomic rename and falls back to copy-then-delete across volumes.
package fsutil
