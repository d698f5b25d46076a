// Package flowmesh provides a composable agent orchestration engine.
//
// Agents, tools and any other text-in/text-out workers implement the
// unit.Unit contract; the composite package combines units into sequential
// pipelines, bounded parallel groups and condition-driven routers, all of
// which are units themselves and nest arbitrarily.  The handoff package
// adds explicit control transfer between registered units, and a shared
// execution context carries cross-unit state for the lifetime of a run.
//
// Flowmesh is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv := flowmesh.New()
//	rt := srv.Runtime()
//	pipeline := composite.NewSequential("pipeline", []unit.Unit{fetch, summarise})
//	result, err := rt.Run(ctx, pipeline, "quarterly report")
//
// For more details see the README and individual sub-packages.
package flowmesh
