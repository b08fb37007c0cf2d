package image

import (
	"encoding/binary"
	"sort"
	"sync"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/backend"
	"github.com/typeforge/meta-runtime/errors"
)

// Region is one contiguous mapped range of a captured address space.
type Region struct {
	Base metaruntime.Address
	Data []byte
}

// Symbol is one named range in a captured address space.
type Symbol struct {
	Name string
	Addr metaruntime.Address
	Size uint64
}

// Snapshot is a read-only copy of a foreign address space: mapped
// regions plus a symbol table. It implements metaruntime.Memory (writes
// are rejected, the image is immutable) and metaruntime.SymbolResolver,
// so a backend composed over a snapshot drives the same construction
// engine as the in-process one.
type Snapshot struct {
	Library string

	mu      sync.RWMutex
	regions []Region // sorted by base, non-overlapping
	symbols []Symbol // sorted by address
	byName  map[string]int
}

// New creates an empty snapshot attributed to the given library name.
func New(library string) *Snapshot {
	return &Snapshot{Library: library, byName: make(map[string]int)}
}

// Capture copies an arena and its symbol table into a snapshot.
func Capture(arena *backend.Arena, syms *backend.TableResolver) (*Snapshot, error) {
	s := New(syms.Library())
	base, data := arena.Extent()
	if err := s.AddRegion(base, data); err != nil {
		return nil, err
	}
	syms.Each(func(name string, addr metaruntime.Address, size uint64) {
		s.AddSymbol(name, addr, size)
	})
	return s, nil
}

// AddRegion maps data at base. Regions must not overlap.
func (s *Snapshot) AddRegion(base metaruntime.Address, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].Base > base })
	if i > 0 {
		prev := s.regions[i-1]
		if base < prev.Base+metaruntime.Address(len(prev.Data)) {
			return errors.InvalidImage("overlapping regions", nil)
		}
	}
	if i < len(s.regions) && base+metaruntime.Address(len(data)) > s.regions[i].Base {
		return errors.InvalidImage("overlapping regions", nil)
	}
	s.regions = append(s.regions, Region{})
	copy(s.regions[i+1:], s.regions[i:])
	s.regions[i] = Region{Base: base, Data: data}
	return nil
}

// AddSymbol records a named range.
func (s *Snapshot) AddSymbol(name string, addr metaruntime.Address, size uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sym := Symbol{Name: name, Addr: addr, Size: size}
	i := sort.Search(len(s.symbols), func(i int) bool { return s.symbols[i].Addr >= addr })
	s.symbols = append(s.symbols, Symbol{})
	copy(s.symbols[i+1:], s.symbols[i:])
	s.symbols[i] = sym
	// indexes after i shifted
	s.byName = make(map[string]int, len(s.symbols))
	for j, sym := range s.symbols {
		s.byName[sym.Name] = j
	}
}

// Symbols returns the symbol table in address order.
func (s *Snapshot) Symbols() []Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Regions returns the mapped regions in base order.
func (s *Snapshot) Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// slice finds the backing bytes for [addr, addr+length). Callers hold mu.
func (s *Snapshot) slice(addr metaruntime.Address, length uint64) ([]byte, error) {
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].Base > addr })
	if i == 0 {
		return nil, errors.OutOfBounds(errors.PhaseResolve, uint64(addr), length)
	}
	r := s.regions[i-1]
	off := uint64(addr - r.Base)
	if off+length > uint64(len(r.Data)) {
		return nil, errors.OutOfBounds(errors.PhaseResolve, uint64(addr), length)
	}
	return r.Data[off : off+length], nil
}

// Read copies length bytes out of the image.
func (s *Snapshot) Read(addr metaruntime.Address, length uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.slice(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b)
	return out, nil
}

// Write always fails: a snapshot is immutable.
func (s *Snapshot) Write(addr metaruntime.Address, data []byte) error {
	return errors.ReadOnly(uint64(addr))
}

func (s *Snapshot) ReadU8(addr metaruntime.Address) (uint8, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Snapshot) ReadU16(addr metaruntime.Address) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s *Snapshot) ReadU32(addr metaruntime.Address) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *Snapshot) ReadU64(addr metaruntime.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s *Snapshot) WriteU8(addr metaruntime.Address, _ uint8) error {
	return errors.ReadOnly(uint64(addr))
}

func (s *Snapshot) WriteU16(addr metaruntime.Address, _ uint16) error {
	return errors.ReadOnly(uint64(addr))
}

func (s *Snapshot) WriteU32(addr metaruntime.Address, _ uint32) error {
	return errors.ReadOnly(uint64(addr))
}

func (s *Snapshot) WriteU64(addr metaruntime.Address, _ uint64) error {
	return errors.ReadOnly(uint64(addr))
}

// SymbolPointer looks up a symbol by name in the captured table.
func (s *Snapshot) SymbolPointer(name string) (metaruntime.Buffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[name]
	if !ok {
		return metaruntime.Buffer{}, errors.SymbolNotFound(name)
	}
	return metaruntime.Buffer{Addr: s.symbols[i].Addr}, nil
}

// SymbolInfo reverse-maps an address against the captured table. Never
// fails; unmapped addresses yield the sentinels.
func (s *Snapshot) SymbolInfo(buf metaruntime.Buffer) metaruntime.SymbolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.Search(len(s.symbols), func(i int) bool { return s.symbols[i].Addr > buf.Addr })
	if i == 0 {
		return metaruntime.UnknownSymbol
	}
	sym := s.symbols[i-1]
	if buf.Addr >= sym.Addr+metaruntime.Address(sym.Size) {
		return metaruntime.UnknownSymbol
	}
	return metaruntime.SymbolInfo{
		Symbol:  sym.Name,
		Library: s.Library,
		Offset:  uint64(buf.Addr - sym.Addr),
	}
}
