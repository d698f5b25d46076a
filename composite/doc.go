// Package composite combines execution units into larger workflows: ordered
// sequential chains, bounded concurrent parallel groups and condition-driven
// routers.  Every composite is itself a unit.Unit, so arbitrary nesting is
// supported.
package composite
