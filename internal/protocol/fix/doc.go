// Package fix tokenizes FIX tag=value messages.
//
// Ownership boundary:
// - field scanning over a caller-owned buffer (push mode via Handler)
// - the struct-of-arrays Index built from scanner output
// - tag vocabulary used for display
//
// Nothing in this package validates body length, checksum, or field
// presence. The buffer passed to Parse is never mutated and must outlive any
// Index or view built from it.
package fix
