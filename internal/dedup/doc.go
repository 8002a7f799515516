// Package dedup removes exact duplicate files within a single directory.
//
// Files are grouped by content digest, served from the directory's digest
// cache where possible. Within each group the name that sorts first in byte
// order survives and every other member is deleted. Digest equality is treated
// as content equality. Running the pass twice over an unchanged directory
// deletes nothing the second time.
package dedup
