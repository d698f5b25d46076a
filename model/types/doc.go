// Package types defines the tagged value union used for all metadata and
// shared-context payloads crossing between composition, logging and handoff
// collaborators.  A Value is one of: string, int, float, bool, array or
// dictionary.  Metadata is a string-keyed collection of Values with
// last-write-wins merge semantics.
package types
