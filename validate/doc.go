// Package validate cross-checks the backend metadata builder against the
// production fast path.
//
// The harness builds a record twice, once by the production path
// (already done when the harness is invoked) and once through the
// address-space-agnostic engine, and compares the results two ways: a
// structural field-by-field comparison of the value-operations tables
// that tolerates the plain and enum-shaped encodings, and a byte
// comparison of the fixed header plus trailing data.
//
// Errors on the way to the comparison (size computation, allocation,
// initialization) leave the validation inconclusive and are logged at
// verbosity >= 2. A comparison mismatch means the two independently
// maintained builders disagree; the harness dumps both records and
// terminates the process, because proceeding would let inconsistent
// type-system metadata spread.
//
// Whether to run the harness inline with production instantiation is the
// embedder's policy; it is enabled by the same environment knob that
// controls trace verbosity and is invoked synchronously when used.
package validate
