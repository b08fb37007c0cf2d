package validate

import (
	"bytes"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
)

// flagsComparisonMask drops FlagIncomplete before comparing flags words.
// The bit is a construction-time cache marker, not part of the finished
// encoding, so the two build paths may legitimately disagree on it.
const flagsComparisonMask = ^abi.FlagIncomplete

// EqualValueWitnesses structurally compares two value-operations tables.
// The required entries are compared field by field; the enum-specific
// extended entries are compared only when both tables carry them. One
// enum-shaped and one plain table never compare equal: those are the
// two valid encodings, and a record must use the one its kind demands.
func EqualValueWitnesses(a, b abi.ValueWitnessTable) (bool, error) {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull(), nil
	}
	for i := 0; i < abi.NumRequiredWitnesses; i++ {
		wa, err := a.Witness(i)
		if err != nil {
			return false, err
		}
		wb, err := b.Witness(i)
		if err != nil {
			return false, err
		}
		if wa != wb {
			return false, nil
		}
	}

	sa, err := a.Size()
	if err != nil {
		return false, err
	}
	sb, err := b.Size()
	if err != nil {
		return false, err
	}
	if sa != sb {
		return false, nil
	}

	ta, err := a.Stride()
	if err != nil {
		return false, err
	}
	tb, err := b.Stride()
	if err != nil {
		return false, err
	}
	if ta != tb {
		return false, nil
	}

	fa, err := a.Flags()
	if err != nil {
		return false, err
	}
	fb, err := b.Flags()
	if err != nil {
		return false, err
	}
	if fa&flagsComparisonMask != fb&flagsComparisonMask {
		return false, nil
	}

	xa, err := a.ExtraInhabitantCount()
	if err != nil {
		return false, err
	}
	xb, err := b.ExtraInhabitantCount()
	if err != nil {
		return false, err
	}
	if xa != xb {
		return false, nil
	}

	enumA := fa&abi.FlagHasEnumWitnesses != 0
	enumB := fb&abi.FlagHasEnumWitnesses != 0
	if !enumA && !enumB {
		return true, nil
	}
	if enumA != enumB {
		return false, nil
	}
	for i := 0; i < abi.NumEnumWitnesses; i++ {
		wa, err := a.EnumWitness(i)
		if err != nil {
			return false, err
		}
		wb, err := b.EnumWitness(i)
		if err != nil {
			return false, err
		}
		if wa != wb {
			return false, nil
		}
	}
	return true, nil
}

// equalBytes compares length bytes of two records in the same address
// space.
func equalBytes(mem metaruntime.Memory, a, b metaruntime.Address, length uint64) (bool, error) {
	if length == 0 {
		return true, nil
	}
	ba, err := mem.Read(a, length)
	if err != nil {
		return false, err
	}
	bb, err := mem.Read(b, length)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ba, bb), nil
}
