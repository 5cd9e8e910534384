package migrate

import "fmt"

// SchemaRegistry tracks which userDataSchemaVersion transitions this build
// knows how to migrate, backing the UpdateStateMachine compatibility gate's
// "registered migration covers current -> target" check.
type SchemaRegistry struct {
	covered map[schemaStep]bool
}

type schemaStep struct {
	from, to int
}

// NewSchemaRegistry returns an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{covered: make(map[schemaStep]bool)}
}

// Register declares that upgrading from schema version "from" to version
// "to" is supported.
func (r *SchemaRegistry) Register(from, to int) {
	r.covered[schemaStep{from, to}] = true
}

// Covers reports whether a direct migration from "from" to "to" is
// registered. Downgrades are never covered, matching the invariant that
// schema downgrades are always blocked regardless of registration.
func (r *SchemaRegistry) Covers(from, to int) bool {
	if to < from {
		return false
	}
	if to == from {
		return true
	}
	return r.covered[schemaStep{from, to}]
}

// Describe renders the "from -> to" fragment the state machine embeds in
// lastError when a migration is unavailable.
func Describe(from, to int) string {
	return fmt.Sprintf("%d -> %d", from, to)
}
