// Package progress defines primitives for reporting and aggregating the
// progress of units executed within one orchestrated run.  It abstracts the
// underlying delivery mechanism so callers consume counter updates in a
// uniform way regardless of how they are observed.
package progress
