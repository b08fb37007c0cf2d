package backend

import (
	"testing"

	metaruntime "github.com/typeforge/meta-runtime"
)

func TestArenaAllocateAligned(t *testing.T) {
	a := NewArena()

	p1, err := a.Allocate(3, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	p2, err := a.Allocate(16, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if p1%metaruntime.PointerSize != 0 {
		t.Errorf("first allocation not pointer aligned: %#x", uint64(p1))
	}
	if p2%metaruntime.PointerSize != 0 {
		t.Errorf("second allocation not pointer aligned: %#x", uint64(p2))
	}
	if p2 <= p1 {
		t.Errorf("allocations overlap: %#x then %#x", uint64(p1), uint64(p2))
	}

	p3, err := a.Allocate(8, 64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if p3%64 != 0 {
		t.Errorf("aligned allocation not at 64: %#x", uint64(p3))
	}
}

func TestArenaNullGuard(t *testing.T) {
	a := NewArena()
	addr, err := a.Allocate(8, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if addr == 0 {
		t.Fatal("arena handed out the null address")
	}
	if _, err := a.ReadU64(0); err == nil {
		t.Error("read at null address succeeded")
	}
}

func TestArenaReadWriteRoundTrip(t *testing.T) {
	a := NewArena()
	addr, err := a.Allocate(32, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := a.WriteU64(addr, 0xdeadbeefcafef00d); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	v, err := a.ReadU64(addr)
	if err != nil {
		t.Fatalf("ReadU64: %v", err)
	}
	if v != 0xdeadbeefcafef00d {
		t.Errorf("ReadU64 = %#x", v)
	}

	if err := a.WriteU32(addr+8, 0x11223344); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	u32, err := a.ReadU32(addr + 8)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if u32 != 0x11223344 {
		t.Errorf("ReadU32 = %#x", u32)
	}

	// Little-endian byte order is part of the ABI.
	b, err := a.Read(addr+8, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if b[0] != 0x44 || b[3] != 0x11 {
		t.Errorf("bytes not little-endian: % x", b)
	}
}

func TestArenaOutOfBounds(t *testing.T) {
	a := NewArena()
	addr, err := a.Allocate(8, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := a.Read(addr+8, 8); err == nil {
		t.Error("read past extent succeeded")
	}
	if err := a.Write(addr+4, make([]byte, 8)); err == nil {
		t.Error("write straddling extent succeeded")
	}
}

func TestArenaDefine(t *testing.T) {
	a := NewArena()
	data := []byte("element type name")
	addr, err := a.Define(data, 0)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	got, err := a.Read(addr, uint64(len(data)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Read = %q", got)
	}
}
