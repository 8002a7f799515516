// Package preflight validates the filesystem roots a command will touch
// before any file is read or mutated.
//
// The CLI runs the checks for every pass and refuses to start when one fails;
// "mediasort config validate" prints the same results as a table.
package preflight
