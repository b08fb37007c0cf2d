package validate

import (
	"fmt"
	"io"
	"os"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
	"github.com/typeforge/meta-runtime/backend"
	"github.com/typeforge/meta-runtime/trace"
)

// Harness rebuilds an already-built metadata record through the backend
// engine and diffs the two results. It runs linearly with no retries:
// SizeCompute, Allocate, Initialize, Compare, Report.
//
// Expected errors in the first three stages make the validation
// inconclusive: the production path already succeeded independently, so
// the harness logs and returns. A comparison mismatch is different: two
// independently maintained implementations of the same layout algorithm
// disagree, and the harness terminates the process after dumping both
// records.
type Harness struct {
	Backend *backend.Backend
	Engine  Engine

	out    io.Writer
	fatalf func(format string, args ...any)
}

// NewHarness creates a harness reporting to stderr.
func NewHarness(b *backend.Backend, e Engine) *Harness {
	return &Harness{
		Backend: b,
		Engine:  e,
		out:     os.Stderr,
		fatalf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
			fmt.Fprintln(os.Stderr)
			os.Exit(1)
		},
	}
}

// SetOutput redirects the validation log and dump stream.
func (h *Harness) SetOutput(w io.Writer) { h.out = w }

// SetFatal replaces the process-terminating report. The replacement must
// not return control to the failed validation; tests use panic/recover.
func (h *Harness) SetFatal(f func(format string, args ...any)) { h.fatalf = f }

// logf writes one validation log line. Mismatch lines (failure=true)
// precede a fatal abort and are always emitted; everything else,
// inconclusive aborts included, needs verbosity >= 2.
func (h *Harness) logf(failure bool, format string, args ...any) {
	if !failure && trace.Verbosity() < 2 {
		return
	}
	fmt.Fprintf(h.out, "metadata builder validation: ")
	fmt.Fprintf(h.out, format, args...)
	fmt.Fprintln(h.out)
}

// Validate rebuilds the instantiation described by desc/pattern/args and
// compares the result against original (the production-path record's
// address point). Inconclusive outcomes return quietly; a structural or
// byte mismatch is fatal.
func (h *Harness) Validate(original, desc, pattern metaruntime.Buffer, args []metaruntime.GenericArgument) {
	mem := h.Backend.Mem

	extraSize, err := h.Engine.ExtraDataSize(desc, pattern)
	if err != nil {
		h.logf(false, "error getting extra data size: %v", err)
		return
	}

	full, err := h.Engine.AllocateGenericValueMetadata(desc, args, pattern, extraSize)
	if err != nil {
		h.logf(false, "error allocating metadata: %v", err)
		return
	}
	if err := h.Engine.InitializeGenericMetadata(full); err != nil {
		h.logf(false, "error initializing metadata: %v", err)
		return
	}
	rebuilt := metaruntime.Buffer{Addr: full.Addr + abi.FullHeaderSize}

	origVWT, err := abi.NewMetadata(mem, original).ValueWitnesses()
	if err != nil {
		h.logf(false, "error reading original value-operations table: %v", err)
		return
	}
	newVWT, err := abi.NewMetadata(mem, rebuilt).ValueWitnesses()
	if err != nil {
		h.logf(false, "error reading rebuilt value-operations table: %v", err)
		return
	}

	equal := true
	vwtEqual, err := EqualValueWitnesses(origVWT, newVWT)
	if err != nil {
		h.logf(false, "error comparing value-operations tables: %v", err)
		return
	}
	if !vwtEqual {
		h.logf(true, "value-operations tables do not match")
		equal = false
	}

	totalSize := uint64(abi.ValueHeaderSize) + extraSize
	bytesEqual, err := equalBytes(mem, original.Addr, rebuilt.Addr, totalSize)
	if err != nil {
		h.logf(false, "error comparing record bytes: %v", err)
		return
	}
	if !bytesEqual {
		h.logf(true, "metadata records do not match")
		equal = false
	}

	name := h.typeName(desc)

	if !equal {
		h.logf(true, "mismatch between production and backend metadata builders")
		dumper := &Dumper{
			Mem:     mem,
			Symbols: h.Backend.Symbols,
			Print: func(format string, args ...any) {
				fmt.Fprintf(h.out, format, args...)
				fmt.Fprintln(h.out)
			},
		}
		h.logf(true, "original metadata:")
		if err := dumper.DumpMetadata(original, extraSize); err != nil {
			h.logf(true, "error dumping original metadata: %v", err)
		}
		h.logf(true, "rebuilt metadata:")
		if err := dumper.DumpMetadata(rebuilt, extraSize); err != nil {
			h.logf(true, "error dumping rebuilt metadata: %v", err)
		}
		h.fatalf("fatal error: mismatched metadata for %s", name)
		return
	}

	trace.Logf(2, "validated metadata builder on %s", name)
}

func (h *Harness) typeName(desc metaruntime.Buffer) string {
	d := abi.TypeDescriptor{Mem: h.Backend.Mem, Buf: desc}
	name, err := d.Name()
	if err != nil || name == "" {
		return metaruntime.Unknown
	}
	return name
}
