package backend

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
)

// Region is a bounds-checked writable window over one record allocation.
// It has exactly one writer (the build attempt that created it) until
// construction completes, after which the storage is handed off as
// read-only metadata; there is no separate commit step.
//
// Every write target must satisfy base <= target < base+size. A write
// outside the region is a contract violation: it indicates a layout
// defect in the construction engine, never bad input, so the error
// carries KindContractViolation and callers escalate rather than
// recover.
type Region struct {
	metaruntime.Buffer
	Size uint64

	Mem metaruntime.Memory
}

// NewRegion wraps an allocation in a writable region.
func NewRegion(mem metaruntime.Memory, addr metaruntime.Address, size uint64) Region {
	return Region{Buffer: metaruntime.Buffer{Addr: addr}, Size: size, Mem: mem}
}

// Contains reports whether addr lies inside the region.
func (r Region) Contains(addr metaruntime.Address) bool {
	return addr >= r.Addr && addr < r.Addr+metaruntime.Address(r.Size)
}

// check validates that width bytes at fieldAddr lie inside the region.
func (r Region) check(fieldAddr metaruntime.Address, width uint64) error {
	if !r.Contains(fieldAddr) || !r.Contains(fieldAddr+metaruntime.Address(width)-1) {
		return errors.ContractViolation(uint64(fieldAddr), uint64(r.Addr), r.Size)
	}
	return nil
}

// WritePointer stores target's address as an absolute pointer at
// fieldAddr.
func (r Region) WritePointer(fieldAddr metaruntime.Address, target metaruntime.Buffer) error {
	if err := r.check(fieldAddr, metaruntime.PointerSize); err != nil {
		return err
	}
	return r.Mem.WriteU64(fieldAddr, uint64(target.Addr))
}

// WriteFunctionPointer stores a code address at fieldAddr. In this
// address space function pointers are plain absolute pointers.
func (r Region) WriteFunctionPointer(fieldAddr metaruntime.Address, target metaruntime.Buffer) error {
	return r.WritePointer(fieldAddr, target)
}

// WriteRelative stores the signed displacement from fieldAddr to target.
func (r Region) WriteRelative(fieldAddr metaruntime.Address, target metaruntime.Buffer) error {
	if err := r.check(fieldAddr, 4); err != nil {
		return err
	}
	off, err := relativeOffset(fieldAddr, target.Addr)
	if err != nil {
		return err
	}
	return r.Mem.WriteU32(fieldAddr, uint32(off))
}

// WriteRelativeIndirect stores an indirectable reference routed through
// slot: the field holds the displacement to slot with the indirect tag
// bit set, and slot holds the target's absolute address. The slot must
// be pointer-aligned so the tag bit is free.
func (r Region) WriteRelativeIndirect(fieldAddr, slot metaruntime.Address) error {
	if err := r.check(fieldAddr, 4); err != nil {
		return err
	}
	off, err := relativeOffset(fieldAddr, slot)
	if err != nil {
		return err
	}
	if off&1 != 0 {
		return errors.New(errors.PhaseWrite, errors.KindContractViolation).
			Addr(uint64(slot)).
			Detail("indirect slot not aligned, tag bit unavailable").
			Build()
	}
	return r.Mem.WriteU32(fieldAddr, uint32(off|1))
}

// Write stores target at fieldAddr using the field's encoding, the
// mirror of Resolver.Resolve.
func (r Region) Write(field PointerField, fieldAddr metaruntime.Address, target metaruntime.Buffer) error {
	switch field.Encoding {
	case Absolute:
		return r.WritePointer(fieldAddr, target)
	case RelativeDirect, CompactFunction:
		return r.WriteRelative(fieldAddr, target)
	case RelativeIndirectable:
		// Direct form; the indirect form needs a slot, use
		// WriteRelativeIndirect explicitly. The low bit tags the
		// indirect form, so a direct target must sit at an even
		// displacement or the reader would take a phantom hop.
		if err := r.check(fieldAddr, 4); err != nil {
			return err
		}
		off, err := relativeOffset(fieldAddr, target.Addr)
		if err != nil {
			return err
		}
		if off&1 != 0 {
			return errors.New(errors.PhaseWrite, errors.KindDisplacement).
				Addr(uint64(fieldAddr)).
				Detail("target %#x at odd displacement, tag bit reserved", uint64(target.Addr)).
				Build()
		}
		return r.Mem.WriteU32(fieldAddr, uint32(off))
	default:
		return errors.New(errors.PhaseWrite, errors.KindContractViolation).
			Addr(uint64(fieldAddr)).
			Detail("unknown pointer encoding %d", field.Encoding).
			Build()
	}
}

// WriteBytes copies raw bytes into the region with the same bounds rule
// as pointer writes.
func (r Region) WriteBytes(fieldAddr metaruntime.Address, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := r.check(fieldAddr, uint64(len(data))); err != nil {
		return err
	}
	return r.Mem.Write(fieldAddr, data)
}
