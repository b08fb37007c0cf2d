package abi

import (
	metaruntime "github.com/typeforge/meta-runtime"
)

// Nominal type descriptor layout (the subset this library consumes; the
// full descriptor grammar is parsed by the construction engine, not
// here):
//
//	+0  flags             u32
//	+4  name              relative-direct i32, NUL-terminated target
//	+8  numGenericParams  u16
//	+10 reserved          u16
const (
	DescriptorFlagsOffset     = 0
	DescriptorNameOffset      = 4
	DescriptorNumParamsOffset = 8
	DescriptorSize            = 12
)

// Descriptor flags bits.
const (
	DescriptorFlagGeneric   uint32 = 0x0080
	DescriptorFlagKindMask  uint32 = 0x001F
	DescriptorKindStruct    uint32 = 0x11
	DescriptorKindEnum      uint32 = 0x12
)

// TypeDescriptor is a read-only view of a nominal type descriptor.
type TypeDescriptor struct {
	Mem metaruntime.Memory
	Buf metaruntime.Buffer
}

// Flags reads the descriptor flags word.
func (d TypeDescriptor) Flags() (uint32, error) {
	return d.Mem.ReadU32(d.Buf.Addr + DescriptorFlagsOffset)
}

// IsGeneric reports whether the described type takes generic arguments.
func (d TypeDescriptor) IsGeneric() (bool, error) {
	flags, err := d.Flags()
	if err != nil {
		return false, err
	}
	return flags&DescriptorFlagGeneric != 0, nil
}

// NumGenericParams reads the direct generic parameter count.
func (d TypeDescriptor) NumGenericParams() (uint16, error) {
	return d.Mem.ReadU16(d.Buf.Addr + DescriptorNumParamsOffset)
}

// Name resolves the descriptor's name reference and reads the string.
func (d TypeDescriptor) Name() (string, error) {
	fieldAddr := d.Buf.Addr + DescriptorNameOffset
	off, err := d.Mem.ReadU32(fieldAddr)
	if err != nil {
		return "", err
	}
	target := metaruntime.Address(int64(fieldAddr) + int64(int32(off)))
	return ReadCString(d.Mem, target)
}

// Generic value metadata pattern layout:
//
//	+0  flags           u32
//	+4  extraDataSize   u32
//	+8  valueWitnesses  absolute u64, template table for new records
const (
	PatternFlagsOffset          = 0
	PatternExtraSizeOffset      = 4
	PatternValueWitnessesOffset = 8
	PatternSize                 = 16
)

// Pattern is a read-only view of a generic value metadata pattern.
type Pattern struct {
	Mem metaruntime.Memory
	Buf metaruntime.Buffer
}

// Flags reads the pattern flags word.
func (p Pattern) Flags() (uint32, error) {
	return p.Mem.ReadU32(p.Buf.Addr + PatternFlagsOffset)
}

// ExtraDataSize reads the trailing data size the pattern requests.
func (p Pattern) ExtraDataSize() (uint32, error) {
	return p.Mem.ReadU32(p.Buf.Addr + PatternExtraSizeOffset)
}

// ValueWitnesses reads the template value-operations table pointer.
func (p Pattern) ValueWitnesses() (ValueWitnessTable, error) {
	v, err := p.Mem.ReadU64(p.Buf.Addr + PatternValueWitnessesOffset)
	if err != nil {
		return ValueWitnessTable{}, err
	}
	return ValueWitnessTable{Mem: p.Mem, Addr: metaruntime.Address(v)}, nil
}
