// Package relocator moves dated media files into the output hierarchy
// outputRoot/YYYY/YYYY-MM-DD.
//
// A destination name that is already taken gets a -1, -2, ... suffix before
// its extension; nothing is ever overwritten. Moves rename within a volume and
// fall back to a verified copy followed by removal of the source when the
// output root lives on another device.
package relocator
