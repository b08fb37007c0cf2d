// Package metaruntime builds runtime metadata records for generic type
// instantiations against an abstract address space.
//
// A generic type is compiled into a reusable pattern plus a descriptor;
// the metadata record for a concrete instantiation is synthesized at
// runtime from that pattern and the actual type arguments. This library
// provides the address-space-agnostic half of that machinery: every
// pointer read, pointer write, symbol lookup, and type-by-name lookup the
// construction engine performs goes through the interfaces defined here,
// so the same engine can run in-process or against a captured image of a
// foreign process.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	metaruntime/         Root package with the Memory, Allocator and
//	                     SymbolResolver backend contract
//	├── abi/             Binary layout of metadata records and
//	                     value-operations tables
//	├── backend/         In-process backend: arena address space, writable
//	                     regions, pointer-encoding resolution, symbol table
//	├── lookup/          Mangled-name type resolution against installed
//	                     generic arguments
//	├── validate/        Double-build validation harness and record dumper
//	├── image/           Read-only snapshot of a foreign address space,
//	                     with an on-disk codec
//	├── trace/           Verbosity-gated diagnostic logging
//	├── errors/          Structured error types for debugging
//	└── cmd/metadump/    Snapshot inspector CLI
//
// # Pointer Encodings
//
// Metadata fields reference their targets through four encodings, each
// with its own resolution rule:
//
//	Absolute               stored 64-bit target address
//	RelativeDirect         signed 32-bit displacement from the field
//	RelativeIndirectable   displacement, low bit selects one extra hop
//	CompactFunction        signed 32-bit self-relative code reference
//
// The engine never branches on the encoding itself; it describes each
// field with a backend.PointerField and the backend applies the rule.
//
// # Validation
//
// The validate package rebuilds a record that the production fast path
// already built, through this backend, and diffs the two byte-for-byte
// plus a structural comparison of the value-operations tables. A mismatch
// means two independently maintained implementations of the same layout
// algorithm disagree, which is a fatal consistency violation.
//
// Set METARUNTIME_VALIDATE_METADATA_BUILDER=2 for a full call-by-call
// trace of symbol lookups and substitution callbacks.
//
// # Thread Safety
//
// Backend, harness and lookup values are created per build attempt and
// are not shared. The arena address space is internally locked and may
// serve concurrent attempts for different instantiations.
package metaruntime
