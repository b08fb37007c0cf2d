// Package image provides a read-only snapshot of a foreign address
// space: mapped memory regions plus a symbol table.
//
// A Snapshot implements the same Memory and SymbolResolver contracts as
// the in-process arena, so a backend composed over one drives the same
// construction engine against captured memory, the out-of-process half
// of the address-space abstraction. Writes are rejected; inspection and
// resolution work unchanged.
//
// Snapshots round-trip through a compact on-disk format (zstd-compressed
// payload with an xxhash64 integrity checksum) consumed by the metadump
// inspector.
package image
