package backend

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
)

// TypeLookup resolves a canonical type-name encoding in the substitution
// context of a partially built containing record. Implemented by the
// lookup package; declared here so the backend bundle stays free of
// upward dependencies.
type TypeLookup interface {
	TypeByMangledName(containing Region, name string) (metaruntime.Buffer, error)
}

// Backend bundles one address space's operations into the value handed
// to the construction engine. The engine is identical regardless of
// which backend it is driven through; an out-of-process backend composes
// the same pieces over an image snapshot.
type Backend struct {
	Mem     metaruntime.Memory
	Alloc   metaruntime.Allocator
	Symbols metaruntime.SymbolResolver
	Types   TypeLookup
}

// New composes a backend from its four services.
func New(mem metaruntime.Memory, alloc metaruntime.Allocator, syms metaruntime.SymbolResolver, types TypeLookup) *Backend {
	return &Backend{Mem: mem, Alloc: alloc, Symbols: syms, Types: types}
}

// Resolver returns a pointer resolver bound to this backend's memory.
func (b *Backend) Resolver() Resolver {
	return Resolver{Mem: b.Mem}
}

// Allocate reserves a pointer-aligned region for one metadata record.
func (b *Backend) Allocate(size uint64) (Region, error) {
	if b.Alloc == nil {
		return Region{}, errors.AllocationFailed(size, errors.ReadOnly(0))
	}
	addr, err := b.Alloc.Allocate(size, metaruntime.PointerSize)
	if err != nil {
		return Region{}, errors.AllocationFailed(size, err)
	}
	return NewRegion(b.Mem, addr, size), nil
}
