package abi

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
)

// PointerSize is the stored pointer width of the ABI.
const PointerSize = metaruntime.PointerSize

// Kind discriminates metadata records. Values above 0x200 are value
// types; enum-shaped kinds carry the extended entries in their
// value-operations tables.
type Kind uint64

const (
	KindStruct   Kind = 0x200
	KindEnum     Kind = 0x201
	KindOptional Kind = 0x202
)

// IsEnumShaped reports whether records of this kind carry enum-specific
// value-operations entries.
func (k Kind) IsEnumShaped() bool {
	return k == KindEnum || k == KindOptional
}

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Record layout. A full record stores the value-operations table pointer
// one word before the address point; callers hold the address point, the
// allocator hands out the full base.
//
//	full base       -> [ value-operations table pointer ]
//	address point   -> [ kind ][ description pointer ]
//	                   [ generic argument vector ... ]
//	                   [ extra data ... ]
const (
	// FullHeaderSize is the number of bytes before the address point.
	FullHeaderSize = PointerSize

	// Offsets relative to the address point.
	KindOffset        = 0
	DescriptionOffset = PointerSize

	// ValueHeaderSize is the fixed header of a value-type record: kind
	// plus description pointer. Byte comparison in validation covers
	// ValueHeaderSize + extra data size.
	ValueHeaderSize = 2 * PointerSize

	// GenericArgsOffset is where the installed argument vector of a
	// generic value type begins, relative to the address point.
	GenericArgsOffset = ValueHeaderSize
)

// Metadata is a read-only view of a record at its address point.
type Metadata struct {
	Mem metaruntime.Memory
	Buf metaruntime.Buffer
}

// NewMetadata wraps a record address point in a view.
func NewMetadata(mem metaruntime.Memory, buf metaruntime.Buffer) Metadata {
	return Metadata{Mem: mem, Buf: buf}
}

// FullBase returns the start of the record allocation, one header before
// the address point.
func (m Metadata) FullBase() metaruntime.Buffer {
	return metaruntime.Buffer{Addr: m.Buf.Addr - FullHeaderSize}
}

// Kind reads the record's kind word.
func (m Metadata) Kind() (Kind, error) {
	v, err := m.Mem.ReadU64(m.Buf.Addr + KindOffset)
	return Kind(v), err
}

// Description reads the descriptor pointer.
func (m Metadata) Description() (metaruntime.Buffer, error) {
	v, err := m.Mem.ReadU64(m.Buf.Addr + DescriptionOffset)
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, err
}

// ValueWitnesses reads the value-operations table pointer stored before
// the address point.
func (m Metadata) ValueWitnesses() (ValueWitnessTable, error) {
	v, err := m.Mem.ReadU64(m.Buf.Addr - FullHeaderSize)
	if err != nil {
		return ValueWitnessTable{}, err
	}
	return ValueWitnessTable{Mem: m.Mem, Addr: metaruntime.Address(v)}, nil
}

// GenericArgument reads the installed argument at the given flat index.
func (m Metadata) GenericArgument(index uint32) (metaruntime.Buffer, error) {
	addr := m.Buf.Addr + GenericArgsOffset + metaruntime.Address(index)*PointerSize
	v, err := m.Mem.ReadU64(addr)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, nil
}

// ReadCString reads a NUL-terminated string from the address space.
func ReadCString(mem metaruntime.Memory, addr metaruntime.Address) (string, error) {
	var out []byte
	for {
		b, err := mem.ReadU8(addr + metaruntime.Address(len(out)))
		if err != nil {
			return "", errors.Wrap(errors.PhaseResolve, errors.KindOutOfBounds, err, "unterminated string")
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
}
