package backend

import (
	"encoding/binary"
	"sync"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
)

// arenaBase keeps all arena addresses well away from zero so the null
// sentinel never aliases a live allocation.
const arenaBase metaruntime.Address = 0x10000

// Arena is the in-process address space: a growable byte region with a
// bump allocator. There is no per-allocation free; abandoned partial
// builds stay in the arena, matching the lifetime class of metadata
// records (allocated once, rarely reclaimed).
//
// Arena implements metaruntime.Memory and metaruntime.Allocator and is
// safe for concurrent use by builds of different instantiations.
type Arena struct {
	mu  sync.Mutex
	buf []byte
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// slice returns the backing bytes for [addr, addr+length). Callers hold mu.
func (a *Arena) slice(addr metaruntime.Address, length uint64) ([]byte, error) {
	if addr < arenaBase {
		return nil, errors.OutOfBounds(errors.PhaseResolve, uint64(addr), length)
	}
	off := uint64(addr - arenaBase)
	if off+length > uint64(len(a.buf)) {
		return nil, errors.OutOfBounds(errors.PhaseResolve, uint64(addr), length)
	}
	return a.buf[off : off+length], nil
}

// Read copies length bytes out of the arena.
func (a *Arena) Read(addr metaruntime.Address, length uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, s)
	return out, nil
}

// Write copies data into the arena.
func (a *Arena) Write(addr metaruntime.Address, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, uint64(len(data)))
	if err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindOutOfBounds, err, "arena write")
	}
	copy(s, data)
	return nil
}

func (a *Arena) ReadU8(addr metaruntime.Address) (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (a *Arena) ReadU16(addr metaruntime.Address) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (a *Arena) ReadU32(addr metaruntime.Address) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

func (a *Arena) ReadU64(addr metaruntime.Address) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

func (a *Arena) WriteU8(addr metaruntime.Address, value uint8) error {
	return a.Write(addr, []byte{value})
}

func (a *Arena) WriteU16(addr metaruntime.Address, value uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], value)
	return a.Write(addr, b[:])
}

func (a *Arena) WriteU32(addr metaruntime.Address, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return a.Write(addr, b[:])
}

func (a *Arena) WriteU64(addr metaruntime.Address, value uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return a.Write(addr, b[:])
}

// Allocate reserves size bytes at the given alignment and returns their
// address. Alignment below pointer size is rounded up to pointer size;
// the arena itself never fails, growth is bounded only by process memory.
func (a *Arena) Allocate(size, align uint64) (metaruntime.Address, error) {
	if align < metaruntime.PointerSize {
		align = metaruntime.PointerSize
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	off := uint64(len(a.buf))
	if rem := off % align; rem != 0 {
		pad := align - rem
		a.buf = append(a.buf, make([]byte, pad)...)
		off += pad
	}
	a.buf = append(a.buf, make([]byte, size)...)
	return arenaBase + metaruntime.Address(off), nil
}

// Define allocates space for data, copies it in, and returns its address.
func (a *Arena) Define(data []byte, align uint64) (metaruntime.Address, error) {
	addr, err := a.Allocate(uint64(len(data)), align)
	if err != nil {
		return 0, err
	}
	if err := a.Write(addr, data); err != nil {
		return 0, err
	}
	return addr, nil
}

// Extent returns the arena base address and a copy of its current
// contents, for capturing into an image snapshot.
func (a *Arena) Extent() (metaruntime.Address, []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	return arenaBase, out
}
