// Package workflow composes the collection passes behind each command.
//
// A Runner walks the input tree once per command and hands every directory to
// the selected pass (list, move, dedup or split). Directories are isolated
// from each other: a failure in one is recorded and the walk moves on, and the
// joined failures are returned once the walk ends. Mutations are reported to
// an optional Recorder, which the CLI backs with the SQLite journal.
//
// Passes never run concurrently on the same directory; the CLI holds a
// run lock for the whole command.
package workflow
