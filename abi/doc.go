// Package abi defines the binary layout of metadata records as read and
// written through a Memory.
//
// The layout is dictated by the native ABI the records must match
// bit-for-bit; this package only names the offsets, it does not decide
// them. All views are thin read-only wrappers over a Memory and an
// address, so the same code inspects a live arena or a captured image.
//
// # Record Shape
//
//	full base       -> [ value-operations table pointer ]
//	address point   -> [ kind ][ description pointer ]
//	                   [ generic argument vector ... ]
//	                   [ extra data ... ]
//
// # Value-Operations Tables
//
// A table has two valid encodings: the plain form with eight required
// function pointers plus size/stride/flags/extraInhabitantCount, and the
// enum-shaped form that appends three enum entries and sets
// FlagHasEnumWitnesses. Structural comparison in the validate package
// tolerates both.
package abi
