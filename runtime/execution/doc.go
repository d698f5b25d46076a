// Package execution holds the runtime state shared across one orchestrated
// run: the uniform Result every unit reports, the serialised shared Context,
// lifecycle Events and run records.
package execution
