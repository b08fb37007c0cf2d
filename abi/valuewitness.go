package abi

import (
	metaruntime "github.com/typeforge/meta-runtime"
)

// Required value-operations entries, in table order. Every table carries
// these eight function pointers followed by size, stride, flags and the
// extra inhabitant count.
const (
	WitnessInitializeBufferWithCopyOfBuffer = iota
	WitnessDestroy
	WitnessInitializeWithCopy
	WitnessAssignWithCopy
	WitnessInitializeWithTake
	WitnessAssignWithTake
	WitnessGetEnumTagSinglePayload
	WitnessStoreEnumTagSinglePayload

	NumRequiredWitnesses
)

// WitnessNames maps required entry indexes to their ABI names, for
// diagnostics.
var WitnessNames = [NumRequiredWitnesses]string{
	"initializeBufferWithCopyOfBuffer",
	"destroy",
	"initializeWithCopy",
	"assignWithCopy",
	"initializeWithTake",
	"assignWithTake",
	"getEnumTagSinglePayload",
	"storeEnumTagSinglePayload",
}

// Enum-specific entries, appended to tables whose flags carry
// FlagHasEnumWitnesses.
const (
	EnumWitnessGetEnumTag = iota
	EnumWitnessDestructiveProjectEnumData
	EnumWitnessDestructiveInjectEnumTag

	NumEnumWitnesses
)

// EnumWitnessNames maps enum entry indexes to their ABI names.
var EnumWitnessNames = [NumEnumWitnesses]string{
	"getEnumTag",
	"destructiveProjectEnumData",
	"destructiveInjectEnumTag",
}

// Table field offsets.
const (
	SizeOffset                 = NumRequiredWitnesses * PointerSize
	StrideOffset               = SizeOffset + PointerSize
	FlagsOffset                = StrideOffset + PointerSize
	ExtraInhabitantCountOffset = FlagsOffset + 4

	// TableSize is the byte size of a plain table; enum-shaped tables
	// append NumEnumWitnesses more pointers.
	TableSize           = ExtraInhabitantCountOffset + 4
	EnumWitnessesOffset = TableSize
	EnumTableSize       = TableSize + NumEnumWitnesses*PointerSize
)

// Flags bits.
const (
	FlagAlignmentMask     uint32 = 0x000000FF
	FlagNonPOD            uint32 = 0x00010000
	FlagNonInline         uint32 = 0x00020000
	FlagHasSpareBits      uint32 = 0x00080000
	FlagNonBitwiseTakable uint32 = 0x00100000
	FlagHasEnumWitnesses  uint32 = 0x00200000

	// FlagIncomplete marks a table still being filled in. It is a
	// construction-time cache bit, not part of the finished encoding.
	FlagIncomplete uint32 = 0x00400000
)

// ValueWitnessTable is a read-only view of a value-operations table.
type ValueWitnessTable struct {
	Mem  metaruntime.Memory
	Addr metaruntime.Address
}

// IsNull reports whether the record had no table pointer installed.
func (t ValueWitnessTable) IsNull() bool { return t.Addr == 0 }

// Witness reads one required entry.
func (t ValueWitnessTable) Witness(i int) (metaruntime.Buffer, error) {
	v, err := t.Mem.ReadU64(t.Addr + metaruntime.Address(i)*PointerSize)
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, err
}

// Size reads the value size in bytes.
func (t ValueWitnessTable) Size() (uint64, error) {
	return t.Mem.ReadU64(t.Addr + SizeOffset)
}

// Stride reads the array stride in bytes.
func (t ValueWitnessTable) Stride() (uint64, error) {
	return t.Mem.ReadU64(t.Addr + StrideOffset)
}

// Flags reads the opaque flags word.
func (t ValueWitnessTable) Flags() (uint32, error) {
	return t.Mem.ReadU32(t.Addr + FlagsOffset)
}

// ExtraInhabitantCount reads the spare-representation count.
func (t ValueWitnessTable) ExtraInhabitantCount() (uint32, error) {
	return t.Mem.ReadU32(t.Addr + ExtraInhabitantCountOffset)
}

// HasEnumWitnesses reports whether the table carries the enum entries.
// This is the flag distinguishing the two valid table encodings.
func (t ValueWitnessTable) HasEnumWitnesses() (bool, error) {
	flags, err := t.Flags()
	if err != nil {
		return false, err
	}
	return flags&FlagHasEnumWitnesses != 0, nil
}

// EnumWitness reads one enum-specific entry. Valid only when
// HasEnumWitnesses reports true.
func (t ValueWitnessTable) EnumWitness(i int) (metaruntime.Buffer, error) {
	v, err := t.Mem.ReadU64(t.Addr + EnumWitnessesOffset + metaruntime.Address(i)*PointerSize)
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, err
}
