package metaruntime

// Address is a location in some address space. The zero address is the
// null sentinel in every space; backends never hand out address zero.
type Address uint64

// PointerSize is the stored pointer width of the metadata ABI, in bytes.
const PointerSize = 8

// Buffer is a non-owning view of memory at an address in some address
// space. Two buffers are equal when their addresses are equal; the buffer
// carries no lifetime semantics and no element type (reinterpretation is
// free, typing lives in the reader).
type Buffer struct {
	Addr Address
}

// IsNull reports whether the buffer points at the null address.
func (b Buffer) IsNull() bool { return b.Addr == 0 }

// Add returns a buffer displaced by off bytes.
func (b Buffer) Add(off uint64) Buffer { return Buffer{Addr: b.Addr + Address(off)} }

// GenericArgument is an opaque handle to one instantiated type or
// conformance argument. Order and count are fixed by the generic signature
// of the type being instantiated; this package only forwards them.
type GenericArgument = Buffer

// Memory is random access to one address space. Multi-byte values are
// little-endian, matching the metadata ABI this library reproduces.
//
// An implementation backed by a foreign image may reject writes; the
// in-process arena accepts both.
type Memory interface {
	Read(addr Address, length uint64) ([]byte, error)
	Write(addr Address, data []byte) error
	ReadU8(addr Address) (uint8, error)
	ReadU16(addr Address) (uint16, error)
	ReadU32(addr Address) (uint32, error)
	ReadU64(addr Address) (uint64, error)
	WriteU8(addr Address, value uint8) error
	WriteU16(addr Address, value uint16) error
	WriteU32(addr Address, value uint32) error
	WriteU64(addr Address, value uint64) error
}

// Allocator reserves memory inside an address space. Metadata allocations
// are arena-scoped: a record that fails mid-construction is abandoned to
// the arena, never freed individually.
type Allocator interface {
	Allocate(size, align uint64) (Address, error)
}

// SymbolInfo describes the symbol nearest to an address. It is produced
// for diagnostics only; the Unknown sentinel with a zero offset is a
// valid, meaningful result, never an error.
type SymbolInfo struct {
	Symbol  string
	Library string
	Offset  uint64
}

// Unknown is the sentinel name used when an address cannot be attributed
// to any symbol or library.
const Unknown = "<unknown>"

// UnknownSymbol is the SymbolInfo returned when resolution is impossible.
var UnknownSymbol = SymbolInfo{Symbol: Unknown, Library: Unknown}

// SymbolResolver looks up program symbols by name and reverse-maps
// addresses for diagnostics.
//
// SymbolPointer fails with a symbol_not_found error when the name is
// absent and an unsupported_platform error when the address space has no
// symbol lookup facility at all; both are expected outcomes the caller
// must handle. SymbolInfo never fails.
type SymbolResolver interface {
	SymbolPointer(name string) (Buffer, error)
	SymbolInfo(buf Buffer) SymbolInfo
}
