// Package logs reads back the run log that mediasort appends to on every
// invocation.
//
// Tail returns the last lines of the file together with the byte offset
// reached, and Follow keeps polling from that offset until the context is
// cancelled. Both operate on an afero.Fs so the CLI and tests share one
// implementation.
package logs
