package validate

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
	"github.com/typeforge/meta-runtime/backend"
	"github.com/typeforge/meta-runtime/errors"
	"github.com/typeforge/meta-runtime/trace"
)

// testEngine lays out records the same way for the production path and
// the rebuild, with switches that inject the failure classes the harness
// must tell apart.
type testEngine struct {
	be      *backend.Backend
	pattern metaruntime.Buffer

	pendingArgs []metaruntime.GenericArgument

	sizeErr      error
	overrideVWT  metaruntime.Address
	corruptExtra bool
}

func (e *testEngine) ExtraDataSize(desc, pattern metaruntime.Buffer) (uint64, error) {
	if e.sizeErr != nil {
		return 0, e.sizeErr
	}
	p := abi.Pattern{Mem: e.be.Mem, Buf: pattern}
	extra, err := p.ExtraDataSize()
	return uint64(extra), err
}

func (e *testEngine) AllocateGenericValueMetadata(desc metaruntime.Buffer, args []metaruntime.GenericArgument, pattern metaruntime.Buffer, extraDataSize uint64) (backend.Region, error) {
	md, err := e.be.Allocate(abi.FullHeaderSize + abi.ValueHeaderSize + extraDataSize)
	if err != nil {
		return backend.Region{}, err
	}
	point := md.Addr + abi.FullHeaderSize
	if err := e.be.Mem.WriteU64(point+abi.KindOffset, uint64(abi.KindStruct)); err != nil {
		return backend.Region{}, err
	}
	if err := md.WritePointer(point+abi.DescriptionOffset, desc); err != nil {
		return backend.Region{}, err
	}
	e.pendingArgs = args
	return md, nil
}

func (e *testEngine) InitializeGenericMetadata(md backend.Region) error {
	point := md.Addr + abi.FullHeaderSize

	vwt := e.overrideVWT
	if vwt == 0 {
		p := abi.Pattern{Mem: e.be.Mem, Buf: e.pattern}
		table, err := p.ValueWitnesses()
		if err != nil {
			return err
		}
		vwt = table.Addr
	}
	if err := md.WritePointer(md.Addr, metaruntime.Buffer{Addr: vwt}); err != nil {
		return err
	}

	for i, arg := range e.pendingArgs {
		addr := point + abi.GenericArgsOffset + metaruntime.Address(i)*abi.PointerSize
		if err := md.WritePointer(addr, arg); err != nil {
			return err
		}
	}

	// Deterministic fill for the trailing bytes past the argument vector.
	argBytes := uint64(len(e.pendingArgs)) * abi.PointerSize
	trailing := md.Size - abi.FullHeaderSize - abi.ValueHeaderSize - argBytes
	fill := make([]byte, trailing)
	for i := range fill {
		fill[i] = 0x5a
	}
	if e.corruptExtra && len(fill) > 0 {
		fill[len(fill)-1] = 0xa5
	}
	return md.WriteBytes(point+abi.GenericArgsOffset+metaruntime.Address(argBytes), fill)
}

type harnessFixture struct {
	arena   *backend.Arena
	be      *backend.Backend
	eng     *testEngine
	harness *Harness

	desc     metaruntime.Buffer
	pattern  metaruntime.Buffer
	args     []metaruntime.GenericArgument
	original metaruntime.Buffer

	out       bytes.Buffer
	fatalMsgs []string
}

// fixtureConfig describes the type the fixture lays out. The zero value
// is a plain non-generic record with no trailing data.
type fixtureConfig struct {
	name      string
	flags     uint32
	numParams uint16
	extraSize uint32
	args      []metaruntime.GenericArgument
}

func newHarnessFixture(t *testing.T) *harnessFixture {
	t.Helper()
	return buildHarnessFixture(t, fixtureConfig{
		name:      "Pair",
		flags:     abi.DescriptorFlagGeneric,
		numParams: 2,
		// Extra data: two installed arguments plus 16 trailing bytes.
		extraSize: 2*abi.PointerSize + 16,
		args:      []metaruntime.GenericArgument{{Addr: 0xa000}, {Addr: 0xb000}},
	})
}

func buildHarnessFixture(t *testing.T, cfg fixtureConfig) *harnessFixture {
	t.Helper()
	f := &harnessFixture{arena: backend.NewArena()}

	vwt := writeTable(t, f.arena, plainSpec())

	desc, err := f.arena.Allocate(abi.DescriptorSize, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	nameAddr, err := f.arena.Define(append([]byte(cfg.name), 0), 0)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := f.arena.WriteU32(desc+abi.DescriptorFlagsOffset, cfg.flags); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	fieldAddr := desc + abi.DescriptorNameOffset
	if err := f.arena.WriteU32(fieldAddr, uint32(int32(int64(nameAddr)-int64(fieldAddr)))); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := f.arena.WriteU16(desc+abi.DescriptorNumParamsOffset, cfg.numParams); err != nil {
		t.Fatalf("WriteU16: %v", err)
	}
	f.desc = metaruntime.Buffer{Addr: desc}

	pattern, err := f.arena.Allocate(abi.PatternSize, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := f.arena.WriteU32(pattern+abi.PatternExtraSizeOffset, cfg.extraSize); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := f.arena.WriteU64(pattern+abi.PatternValueWitnessesOffset, uint64(vwt.Addr)); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	f.pattern = metaruntime.Buffer{Addr: pattern}

	syms := backend.NewTableResolver("test")
	syms.Register("value witness table for "+cfg.name, vwt.Addr, abi.TableSize)
	syms.Register("nominal type descriptor for "+cfg.name, desc, abi.DescriptorSize)
	f.be = backend.New(f.arena, f.arena, syms, nil)
	f.eng = &testEngine{be: f.be, pattern: f.pattern}
	f.args = cfg.args

	// Production path: build the reference record through the same engine
	// before any corruption switch is thrown.
	extra, err := f.eng.ExtraDataSize(f.desc, f.pattern)
	if err != nil {
		t.Fatalf("ExtraDataSize: %v", err)
	}
	md, err := f.eng.AllocateGenericValueMetadata(f.desc, f.args, f.pattern, extra)
	if err != nil {
		t.Fatalf("AllocateGenericValueMetadata: %v", err)
	}
	if err := f.eng.InitializeGenericMetadata(md); err != nil {
		t.Fatalf("InitializeGenericMetadata: %v", err)
	}
	f.original = metaruntime.Buffer{Addr: md.Addr + abi.FullHeaderSize}

	f.harness = NewHarness(f.be, f.eng)
	f.harness.SetOutput(&f.out)
	f.harness.SetFatal(func(format string, args ...any) {
		f.fatalMsgs = append(f.fatalMsgs, fmt.Sprintf(format, args...))
	})
	return f
}

func setVerbosity(t *testing.T, level string) {
	t.Helper()
	trace.SetGetenv(func(key string) string {
		if key == trace.EnvVerbosity {
			return level
		}
		return ""
	})
	t.Cleanup(func() { trace.SetGetenv(nil) })
}

func TestValidateMatchingBuildIsSilent(t *testing.T) {
	setVerbosity(t, "0")
	f := newHarnessFixture(t)

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)

	if len(f.fatalMsgs) != 0 {
		t.Errorf("fatal report on matching build: %v", f.fatalMsgs)
	}
	if f.out.Len() != 0 {
		t.Errorf("output on matching build at verbosity 0: %q", f.out.String())
	}
}

func TestValidatePlainRecordIsSilent(t *testing.T) {
	setVerbosity(t, "0")
	// Non-generic struct, no installed arguments, no trailing data.
	f := buildHarnessFixture(t, fixtureConfig{
		name:  "Point",
		flags: abi.DescriptorKindStruct,
	})

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)

	if len(f.fatalMsgs) != 0 {
		t.Errorf("fatal report on matching plain build: %v", f.fatalMsgs)
	}
	if f.out.Len() != 0 {
		t.Errorf("output on matching plain build: %q", f.out.String())
	}
}

func TestValidateCorruptedBytesIsFatal(t *testing.T) {
	setVerbosity(t, "0")
	f := newHarnessFixture(t)
	f.eng.corruptExtra = true

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)

	if len(f.fatalMsgs) != 1 {
		t.Fatalf("fatal reports = %v, want one", f.fatalMsgs)
	}
	if !strings.Contains(f.fatalMsgs[0], "mismatched metadata for Pair") {
		t.Errorf("fatal message = %q", f.fatalMsgs[0])
	}
	out := f.out.String()
	for _, want := range []string{
		"metadata records do not match",
		"original metadata:",
		"rebuilt metadata:",
		"extra data",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateWitnessTableMismatchIsFatal(t *testing.T) {
	setVerbosity(t, "0")
	f := newHarnessFixture(t)
	spec := plainSpec()
	spec.size = 24
	spec.stride = 24
	f.eng.overrideVWT = writeTable(t, f.arena, spec).Addr

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)

	if len(f.fatalMsgs) != 1 {
		t.Fatalf("fatal reports = %v, want one", f.fatalMsgs)
	}
	if !strings.Contains(f.out.String(), "value-operations tables do not match") {
		t.Errorf("output missing table mismatch line:\n%s", f.out.String())
	}
}

func TestValidateToleratesEquivalentTableCopy(t *testing.T) {
	setVerbosity(t, "0")
	f := newHarnessFixture(t)
	// A rebuilt record may reference its own copy of the table, still
	// marked incomplete; structural equality under the comparison mask
	// must accept it.
	spec := plainSpec()
	spec.flags |= abi.FlagIncomplete
	f.eng.overrideVWT = writeTable(t, f.arena, spec).Addr

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)

	if len(f.fatalMsgs) != 0 {
		t.Errorf("fatal report on equivalent table copy: %v", f.fatalMsgs)
	}
}

func TestValidateInconclusiveSizeError(t *testing.T) {
	setVerbosity(t, "0")
	f := newHarnessFixture(t)
	f.eng.sizeErr = errors.NotFound(errors.PhaseSize, "layout", "Pair")

	f.harness.Validate(f.original, f.desc, f.pattern, f.args)
	if len(f.fatalMsgs) != 0 {
		t.Errorf("inconclusive validation escalated to fatal: %v", f.fatalMsgs)
	}
	if f.out.Len() != 0 {
		t.Errorf("inconclusive log emitted at verbosity 0: %q", f.out.String())
	}

	// Still silent at the failures-only level; the abort reason
	// surfaces only with the full trace.
	setVerbosity(t, "1")
	f.harness.Validate(f.original, f.desc, f.pattern, f.args)
	if f.out.Len() != 0 {
		t.Errorf("inconclusive log emitted at verbosity 1: %q", f.out.String())
	}

	setVerbosity(t, "2")
	f.harness.Validate(f.original, f.desc, f.pattern, f.args)
	if !strings.Contains(f.out.String(), "error getting extra data size") {
		t.Errorf("output missing abort reason:\n%s", f.out.String())
	}
	if len(f.fatalMsgs) != 0 {
		t.Errorf("inconclusive validation escalated to fatal: %v", f.fatalMsgs)
	}
}
