// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra command tree maps each pass over a collection (list, move, dedup,
// split) onto the workflow runner, and adds run history and configuration
// scaffolding. Configuration resolution, command-line overrides, preflight
// checks, the run lock and the journal are wired here once so the pass
// commands stay declarative.
package main
