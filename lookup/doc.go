// Package lookup resolves canonical type-name encodings against the
// generic arguments installed in a partially built metadata record.
//
// The name grammar itself is parsed by an external NameResolver; this
// package contributes the substitution context: callbacks that answer
// "generic parameter (depth, index)" and "witness table (type, index)"
// by reading the record's argument vector. Every callback invocation is
// traced at verbosity >= 2 with its inputs and outputs.
package lookup
