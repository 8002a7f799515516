// Package journal records the history of mediasort runs in SQLite: one row per
// command invocation and one row per mutation (move, delete, split) it made.
// The journal is an audit trail only; nothing is ever replayed from it.
package journal
