// Package backend implements the in-process side of the address-space
// abstraction: an arena-backed memory, bounds-checked writable regions,
// pointer-encoding resolution, and a registered symbol table.
//
// # Pointer Resolution
//
// A pointer-shaped field is described by a PointerField (encoding +
// nullability) and resolved through Resolver.Resolve. The four encodings
// have distinct rules:
//
//	Absolute               dereference the stored 64-bit address
//	RelativeDirect         field address + stored signed displacement
//	RelativeIndirectable   as above; a set low bit adds one pointer hop
//	CompactFunction        self-relative code reference
//
// The construction engine issues one generic call per field; the
// encoding decides the behavior. Region.Write is the mirror for the
// write direction.
//
// # Bounds Discipline
//
// Region checks every write against [base, base+size). The check is
// always on: Go has no disable-in-release assertion, and a violation
// here means the engine's layout diverged from its size computation,
// which must never be written through silently. Violations carry
// errors.KindContractViolation and are escalated, not handled.
//
// # Arena
//
// The Arena is a bump allocator over a growable region with no
// individual free. A build attempt that fails after allocating simply
// abandons its region; the metadata lifetime class makes reclamation the
// arena's policy, never the builder's.
package backend
