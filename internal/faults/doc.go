// Package faults defines the error markers shared by every mediasort pass.
//
// Errors are built with Wrap so that callers can classify a failure with
// errors.Is against a marker (configuration, cache corruption, I/O, collision,
// transient) while still reaching the underlying cause. The command layer uses
// the classification to decide between aborting a pass before it mutates
// anything and reporting an isolated per-directory or per-file failure.
package faults
