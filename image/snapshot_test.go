package image_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/backend"
	"github.com/typeforge/meta-runtime/errors"
	"github.com/typeforge/meta-runtime/image"
)

func buildArena(t *testing.T) (*backend.Arena, *backend.TableResolver, metaruntime.Address) {
	t.Helper()
	arena := backend.NewArena()
	addr, err := arena.Define([]byte("captured record bytes!!!"), 0)
	require.NoError(t, err)
	require.NoError(t, arena.WriteU64(addr, 0x1122334455667788))

	syms := backend.NewTableResolver("libpair")
	syms.Register("type metadata for Pair", addr, 24)
	return arena, syms, addr
}

func TestCaptureReadsMatchArena(t *testing.T) {
	arena, syms, addr := buildArena(t)

	snap, err := image.Capture(arena, syms)
	require.NoError(t, err)
	require.Equal(t, "libpair", snap.Library)

	want, err := arena.Read(addr, 24)
	require.NoError(t, err)
	got, err := snap.Read(addr, 24)
	require.NoError(t, err)
	require.Equal(t, want, got)

	u64, err := snap.ReadU64(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), u64)

	_, err = snap.Read(addr+1<<20, 8)
	require.Error(t, err)
}

func TestSnapshotIsReadOnly(t *testing.T) {
	arena, syms, addr := buildArena(t)
	snap, err := image.Capture(arena, syms)
	require.NoError(t, err)

	readOnly := &errors.Error{Phase: errors.PhaseWrite, Kind: errors.KindReadOnly}
	require.ErrorIs(t, snap.Write(addr, []byte{1}), readOnly)
	require.ErrorIs(t, snap.WriteU8(addr, 1), readOnly)
	require.ErrorIs(t, snap.WriteU32(addr, 1), readOnly)
	require.ErrorIs(t, snap.WriteU64(addr, 1), readOnly)
}

func TestSnapshotSymbolResolution(t *testing.T) {
	arena, syms, addr := buildArena(t)
	snap, err := image.Capture(arena, syms)
	require.NoError(t, err)

	buf, err := snap.SymbolPointer("type metadata for Pair")
	require.NoError(t, err)
	require.Equal(t, addr, buf.Addr)

	_, err = snap.SymbolPointer("absent")
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseSymbol, Kind: errors.KindSymbolNotFound})

	info := snap.SymbolInfo(metaruntime.Buffer{Addr: addr + 8})
	require.Equal(t, metaruntime.SymbolInfo{
		Symbol:  "type metadata for Pair",
		Library: "libpair",
		Offset:  8,
	}, info)

	require.Equal(t, metaruntime.UnknownSymbol, snap.SymbolInfo(metaruntime.Buffer{Addr: 0x1}))
}

func TestAddRegionRejectsOverlap(t *testing.T) {
	snap := image.New("lib")
	require.NoError(t, snap.AddRegion(0x1000, make([]byte, 0x100)))
	require.NoError(t, snap.AddRegion(0x2000, make([]byte, 0x100)))

	invalid := &errors.Error{Phase: errors.PhaseImage, Kind: errors.KindInvalidImage}
	require.ErrorIs(t, snap.AddRegion(0x10f0, make([]byte, 0x20)), invalid)
	require.ErrorIs(t, snap.AddRegion(0xff0, make([]byte, 0x20)), invalid)

	// Adjacent is not overlapping.
	require.NoError(t, snap.AddRegion(0x1100, make([]byte, 0x10)))
}

func TestReadAcrossRegionBoundaryFails(t *testing.T) {
	snap := image.New("lib")
	require.NoError(t, snap.AddRegion(0x1000, make([]byte, 0x100)))
	require.NoError(t, snap.AddRegion(0x1100, make([]byte, 0x100)))

	// Regions are separate mappings even when adjacent.
	_, err := snap.Read(0x10f8, 16)
	require.Error(t, err)
}
