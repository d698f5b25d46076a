// Package policy provides optional declarative rules applied on top of a
// running composition – for example to require approval before selected
// units dispatch or to block units by name.
package policy
