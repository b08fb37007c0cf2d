package validate

import (
	"testing"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
	"github.com/typeforge/meta-runtime/backend"
)

type tableSpec struct {
	witnessBase uint64
	enumBase    uint64
	size        uint64
	stride      uint64
	flags       uint32
	xi          uint32
}

func plainSpec() tableSpec {
	return tableSpec{witnessBase: 0x4000, size: 16, stride: 16, flags: 7}
}

func enumSpec() tableSpec {
	s := plainSpec()
	s.flags |= abi.FlagHasEnumWitnesses
	s.enumBase = 0x5000
	return s
}

// writeTable lays a value-operations table into the arena per spec.
func writeTable(t *testing.T, a *backend.Arena, spec tableSpec) abi.ValueWitnessTable {
	t.Helper()
	tableSize := uint64(abi.TableSize)
	if spec.flags&abi.FlagHasEnumWitnesses != 0 {
		tableSize = abi.EnumTableSize
	}
	addr, err := a.Allocate(tableSize, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	for i := 0; i < abi.NumRequiredWitnesses; i++ {
		if err := a.WriteU64(addr+metaruntime.Address(i)*abi.PointerSize, spec.witnessBase+uint64(i)); err != nil {
			t.Fatalf("WriteU64: %v", err)
		}
	}
	if err := a.WriteU64(addr+abi.SizeOffset, spec.size); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	if err := a.WriteU64(addr+abi.StrideOffset, spec.stride); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	if err := a.WriteU32(addr+abi.FlagsOffset, spec.flags); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := a.WriteU32(addr+abi.ExtraInhabitantCountOffset, spec.xi); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if spec.flags&abi.FlagHasEnumWitnesses != 0 {
		for i := 0; i < abi.NumEnumWitnesses; i++ {
			if err := a.WriteU64(addr+abi.EnumWitnessesOffset+metaruntime.Address(i)*abi.PointerSize, spec.enumBase+uint64(i)); err != nil {
				t.Fatalf("WriteU64: %v", err)
			}
		}
	}
	return abi.ValueWitnessTable{Mem: a, Addr: addr}
}

func TestEqualValueWitnessesIdenticalTables(t *testing.T) {
	a := backend.NewArena()
	// Same content at two different addresses.
	ta := writeTable(t, a, plainSpec())
	tb := writeTable(t, a, plainSpec())

	eq, err := EqualValueWitnesses(ta, tb)
	if err != nil {
		t.Fatalf("EqualValueWitnesses: %v", err)
	}
	if !eq {
		t.Error("identical tables compared unequal")
	}
}

func TestIncompleteFlagIgnored(t *testing.T) {
	a := backend.NewArena()
	ta := writeTable(t, a, plainSpec())
	spec := plainSpec()
	spec.flags |= abi.FlagIncomplete
	tb := writeTable(t, a, spec)

	eq, err := EqualValueWitnesses(ta, tb)
	if err != nil {
		t.Fatalf("EqualValueWitnesses: %v", err)
	}
	if !eq {
		t.Error("tables differing only in the incomplete bit compared unequal")
	}
}

func TestUnequalValueWitnesses(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*tableSpec)
	}{
		{"witness pointer", func(s *tableSpec) { s.witnessBase = 0x9000 }},
		{"size", func(s *tableSpec) { s.size = 24 }},
		{"stride", func(s *tableSpec) { s.stride = 24 }},
		{"alignment flags", func(s *tableSpec) { s.flags = 3 }},
		{"extra inhabitants", func(s *tableSpec) { s.xi = 1 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			a := backend.NewArena()
			ta := writeTable(t, a, plainSpec())
			spec := plainSpec()
			tt.mutate(&spec)
			tb := writeTable(t, a, spec)

			eq, err := EqualValueWitnesses(ta, tb)
			if err != nil {
				t.Fatalf("EqualValueWitnesses: %v", err)
			}
			if eq {
				t.Error("differing tables compared equal")
			}
		})
	}
}

func TestEnumShapeDisagreement(t *testing.T) {
	a := backend.NewArena()
	plain := writeTable(t, a, plainSpec())
	enum := writeTable(t, a, enumSpec())

	eq, err := EqualValueWitnesses(plain, enum)
	if err != nil {
		t.Fatalf("EqualValueWitnesses: %v", err)
	}
	if eq {
		t.Error("plain and enum-shaped tables compared equal")
	}
}

func TestEnumWitnessComparison(t *testing.T) {
	a := backend.NewArena()
	ta := writeTable(t, a, enumSpec())
	tb := writeTable(t, a, enumSpec())

	eq, err := EqualValueWitnesses(ta, tb)
	if err != nil {
		t.Fatalf("EqualValueWitnesses: %v", err)
	}
	if !eq {
		t.Error("identical enum-shaped tables compared unequal")
	}

	spec := enumSpec()
	spec.enumBase = 0x9000
	tc := writeTable(t, a, spec)
	eq, err = EqualValueWitnesses(ta, tc)
	if err != nil {
		t.Fatalf("EqualValueWitnesses: %v", err)
	}
	if eq {
		t.Error("tables with differing enum entries compared equal")
	}
}

func TestNullTables(t *testing.T) {
	a := backend.NewArena()
	var null abi.ValueWitnessTable
	live := writeTable(t, a, plainSpec())

	eq, err := EqualValueWitnesses(null, null)
	if err != nil || !eq {
		t.Errorf("two null tables: eq=%v err=%v", eq, err)
	}
	eq, err = EqualValueWitnesses(null, live)
	if err != nil || eq {
		t.Errorf("null against live: eq=%v err=%v", eq, err)
	}
}

func TestEqualBytes(t *testing.T) {
	a := backend.NewArena()
	p1, err := a.Define([]byte("same contents!!!"), 0)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	p2, err := a.Define([]byte("same contents!!!"), 0)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	p3, err := a.Define([]byte("other contents!!"), 0)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	eq, err := equalBytes(a, p1, p2, 16)
	if err != nil || !eq {
		t.Errorf("identical bytes: eq=%v err=%v", eq, err)
	}
	eq, err = equalBytes(a, p1, p3, 16)
	if err != nil || eq {
		t.Errorf("differing bytes: eq=%v err=%v", eq, err)
	}
	eq, err = equalBytes(a, p1, p3, 0)
	if err != nil || !eq {
		t.Errorf("zero length: eq=%v err=%v", eq, err)
	}
}
