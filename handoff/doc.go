// Package handoff implements explicit control transfer between registered
// units: a source unit delegates the run to a named target, carrying the
// input, a reason and an optional context delta.  Per-target configurations
// gate, filter and observe transfers.
package handoff
