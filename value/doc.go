// Package value is a minimal stand-in for the database's value-type
// conversion layer. The real wire schema's Value message and its
// conversion helpers are out of scope (spec.md §1); this package only
// needs to round-trip the scalar and container shapes table results
// carry, so table/ and the examples in doc.go have something concrete
// to bind against.
package value
