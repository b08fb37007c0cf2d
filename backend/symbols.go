package backend

import (
	"sort"
	"sync"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
	"github.com/typeforge/meta-runtime/trace"
)

// TableResolver is the in-process symbol resolver: a registered table of
// named addresses, the Go analogue of searching the running module's own
// symbols. The embedding runtime registers the symbols its patterns may
// reference.
type TableResolver struct {
	library string

	mu     sync.RWMutex
	byName map[string]tableEntry
	sorted []tableEntry // by address, for reverse lookup
}

type tableEntry struct {
	name string
	addr metaruntime.Address
	size uint64
}

// NewTableResolver creates an empty resolver reporting the given library
// name in SymbolInfo results.
func NewTableResolver(library string) *TableResolver {
	return &TableResolver{
		library: library,
		byName:  make(map[string]tableEntry),
	}
}

// Register adds a named symbol covering [addr, addr+size).
func (t *TableResolver) Register(name string, addr metaruntime.Address, size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := tableEntry{name: name, addr: addr, size: size}
	t.byName[name] = e
	i := sort.Search(len(t.sorted), func(i int) bool { return t.sorted[i].addr >= addr })
	t.sorted = append(t.sorted, tableEntry{})
	copy(t.sorted[i+1:], t.sorted[i:])
	t.sorted[i] = e
}

// SymbolPointer looks up a symbol by name.
func (t *TableResolver) SymbolPointer(name string) (metaruntime.Buffer, error) {
	t.mu.RLock()
	e, ok := t.byName[name]
	t.mu.RUnlock()
	trace.Logf(2, "getSymbolPointer(%q) -> %#x", name, uint64(e.addr))
	if !ok {
		return metaruntime.Buffer{}, errors.SymbolNotFound(name)
	}
	return metaruntime.Buffer{Addr: e.addr}, nil
}

// SymbolInfo reverse-maps an address to the symbol containing it. It
// never fails: addresses outside every registered symbol produce the
// "<unknown>" sentinels with a zero offset.
func (t *TableResolver) SymbolInfo(buf metaruntime.Buffer) metaruntime.SymbolInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := sort.Search(len(t.sorted), func(i int) bool { return t.sorted[i].addr > buf.Addr })
	if i == 0 {
		return metaruntime.UnknownSymbol
	}
	e := t.sorted[i-1]
	if buf.Addr >= e.addr+metaruntime.Address(e.size) {
		return metaruntime.UnknownSymbol
	}
	return metaruntime.SymbolInfo{
		Symbol:  e.name,
		Library: t.library,
		Offset:  uint64(buf.Addr - e.addr),
	}
}

// Each calls fn for every registered symbol in address order. Used when
// capturing the in-process table into an image snapshot.
func (t *TableResolver) Each(fn func(name string, addr metaruntime.Address, size uint64)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.sorted {
		fn(e.name, e.addr, e.size)
	}
}

// Library returns the library name this resolver reports.
func (t *TableResolver) Library() string { return t.library }

// Unsupported is the resolver for platforms with no symbol lookup
// facility at all. SymbolPointer reports unsupported_platform; reverse
// lookup degrades to the sentinels.
type Unsupported struct{}

// SymbolPointer always fails with unsupported_platform.
func (Unsupported) SymbolPointer(name string) (metaruntime.Buffer, error) {
	return metaruntime.Buffer{}, errors.UnsupportedPlatform("symbol lookup")
}

// SymbolInfo always returns the sentinels.
func (Unsupported) SymbolInfo(metaruntime.Buffer) metaruntime.SymbolInfo {
	return metaruntime.UnknownSymbol
}
