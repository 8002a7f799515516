// Package config loads, normalizes, and validates mediasort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIASORT_INPUT_DIR. The Config type centralizes every knob the passes need
// (input, output and log roots, the digest sidecar name, the media allow-list,
// the split threshold) so each component receives its settings explicitly at
// construction instead of reading process-wide globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
