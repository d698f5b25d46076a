// Package extension lets host applications register custom Go types with the
// engine so that values stored in the shared execution context can be
// materialised back into typed structures.
package extension
