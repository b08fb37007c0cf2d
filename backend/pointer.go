package backend

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
	"github.com/typeforge/meta-runtime/trace"
)

// Encoding identifies how a pointer-shaped field stores its target. The
// construction engine attaches an Encoding to each field descriptor and
// calls Resolver.Resolve; it never branches on the encoding itself.
type Encoding uint8

const (
	// Absolute fields store the full target address.
	Absolute Encoding = iota
	// RelativeDirect fields store a signed 32-bit displacement from the
	// field's own address.
	RelativeDirect
	// RelativeIndirectable fields store a displacement whose low bit,
	// when set, routes through one stored pointer to reach the target.
	RelativeIndirectable
	// CompactFunction fields store a signed 32-bit self-relative code
	// reference.
	CompactFunction
)

func (e Encoding) String() string {
	switch e {
	case Absolute:
		return "absolute"
	case RelativeDirect:
		return "relative-direct"
	case RelativeIndirectable:
		return "relative-indirectable"
	case CompactFunction:
		return "compact-function"
	default:
		return "unknown"
	}
}

// PointerField describes one pointer-shaped field: its encoding and
// whether the null sentinel is a legal stored value.
type PointerField struct {
	Encoding Encoding
	Nullable bool
}

// Resolver resolves pointer-shaped fields read from an address space.
type Resolver struct {
	Mem metaruntime.Memory
}

// Resolve reads the field at fieldAddr and returns a buffer for its
// target, applying the field's encoding rule. A null stored value yields
// a null buffer when the field is nullable and a null_pointer error
// otherwise.
func (r Resolver) Resolve(field PointerField, fieldAddr metaruntime.Address) (metaruntime.Buffer, error) {
	switch field.Encoding {
	case Absolute:
		return r.ResolveAbsolute(fieldAddr, field.Nullable)
	case RelativeDirect:
		return r.ResolveRelativeDirect(fieldAddr, field.Nullable)
	case RelativeIndirectable:
		return r.ResolveRelativeIndirectable(fieldAddr, field.Nullable)
	case CompactFunction:
		return r.ResolveFunctionPointer(fieldAddr, field.Nullable)
	default:
		return metaruntime.Buffer{}, errors.New(errors.PhaseResolve, errors.KindContractViolation).
			Addr(uint64(fieldAddr)).
			Detail("unknown pointer encoding %d", field.Encoding).
			Build()
	}
}

// ResolveAbsolute dereferences a stored absolute pointer.
func (r Resolver) ResolveAbsolute(fieldAddr metaruntime.Address, nullable bool) (metaruntime.Buffer, error) {
	v, err := r.Mem.ReadU64(fieldAddr)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if v == 0 {
		return r.null(fieldAddr, nullable)
	}
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, nil
}

// ResolveRelativeDirect applies a stored signed displacement to the
// field's own address.
func (r Resolver) ResolveRelativeDirect(fieldAddr metaruntime.Address, nullable bool) (metaruntime.Buffer, error) {
	off, err := r.readOffset(fieldAddr)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if off == 0 {
		return r.null(fieldAddr, nullable)
	}
	return metaruntime.Buffer{Addr: displace(fieldAddr, off)}, nil
}

// ResolveRelativeIndirectable applies a stored displacement whose low
// bit selects one extra pointer hop.
func (r Resolver) ResolveRelativeIndirectable(fieldAddr metaruntime.Address, nullable bool) (metaruntime.Buffer, error) {
	off, err := r.readOffset(fieldAddr)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if off == 0 {
		return r.null(fieldAddr, nullable)
	}
	target := displace(fieldAddr, off&^1)
	if off&1 == 0 {
		return metaruntime.Buffer{Addr: target}, nil
	}
	// Indirect form: the displaced location holds the real pointer.
	v, err := r.Mem.ReadU64(target)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if v == 0 {
		return r.null(fieldAddr, nullable)
	}
	return metaruntime.Buffer{Addr: metaruntime.Address(v)}, nil
}

// ResolveFunctionPointer extracts the code address from a compact
// function pointer field.
func (r Resolver) ResolveFunctionPointer(fieldAddr metaruntime.Address, nullable bool) (metaruntime.Buffer, error) {
	off, err := r.readOffset(fieldAddr)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if off == 0 {
		return r.null(fieldAddr, nullable)
	}
	return metaruntime.Buffer{Addr: displace(fieldAddr, off)}, nil
}

func (r Resolver) readOffset(fieldAddr metaruntime.Address) (int32, error) {
	v, err := r.Mem.ReadU32(fieldAddr)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (r Resolver) null(fieldAddr metaruntime.Address, nullable bool) (metaruntime.Buffer, error) {
	if nullable {
		return metaruntime.Buffer{}, nil
	}
	trace.Logf(2, "null value in non-nullable field at %#x", uint64(fieldAddr))
	return metaruntime.Buffer{}, errors.NullPointer(uint64(fieldAddr))
}

func displace(fieldAddr metaruntime.Address, off int32) metaruntime.Address {
	return metaruntime.Address(int64(fieldAddr) + int64(off))
}

// relativeOffset computes the signed 32-bit displacement from fieldAddr
// to target, or a displacement error when the distance does not fit.
func relativeOffset(fieldAddr, target metaruntime.Address) (int32, error) {
	d := int64(target) - int64(fieldAddr)
	if d > 0x7FFFFFFF || d < -0x80000000 {
		return 0, errors.Displacement(uint64(fieldAddr), uint64(target))
	}
	return int32(d), nil
}
