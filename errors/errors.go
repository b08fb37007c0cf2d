package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in metadata construction the error occurred
type Phase string

const (
	PhaseSize       Phase = "size"       // extra data size computation
	PhaseAllocate   Phase = "allocate"   // record allocation
	PhaseInitialize Phase = "initialize" // engine initialization passes
	PhaseCompare    Phase = "compare"    // double-build comparison
	PhaseResolve    Phase = "resolve"    // pointer field resolution
	PhaseWrite      Phase = "write"      // pointer field writes
	PhaseSymbol     Phase = "symbol"     // symbol lookup
	PhaseLookup     Phase = "lookup"     // type-by-name lookup
	PhaseImage      Phase = "image"      // snapshot encoding/decoding
)

// Kind categorizes the error
type Kind string

const (
	KindSymbolNotFound      Kind = "symbol_not_found"
	KindUnsupportedPlatform Kind = "unsupported_platform"
	KindContractViolation   Kind = "contract_violation"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindNullPointer         Kind = "null_pointer"
	KindMalformedName       Kind = "malformed_name"
	KindDisplacement        Kind = "displacement"
	KindReadOnly            Kind = "read_only"
	KindInvalidImage        Kind = "invalid_image"
	KindChecksum            Kind = "checksum"
	KindAllocation          Kind = "allocation"
	KindNotFound            Kind = "not_found"
)

// Error is the structured error type used throughout the library.
//
// Expected errors (absent symbols, unsupported platforms, malformed name
// encodings) and contract violations (out-of-region writes, comparison
// mismatches) share this shape; callers distinguish them by Kind.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Symbol string
	Addr   uint64
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Symbol != "" {
		b.WriteString(" for ")
		b.WriteString(e.Symbol)
	}
	if e.Addr != 0 {
		fmt.Fprintf(&b, " at %#x", e.Addr)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two errors match when
// their Phase and Kind agree, so sentinel values like
// &Error{Phase: PhaseSymbol, Kind: KindSymbolNotFound} work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsContractViolation reports whether err carries the contract-violation
// kind anywhere in its chain. Contract violations indicate a defect in the
// construction engine itself, never bad external input, and the caller is
// expected to escalate them to a fatal report.
func IsContractViolation(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindContractViolation {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Symbol sets the symbol name involved
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Addr sets the address involved
func (b *Builder) Addr(addr uint64) *Builder {
	b.err.Addr = addr
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SymbolNotFound creates an error for a name the resolver cannot find
func SymbolNotFound(name string) *Error {
	return &Error{
		Phase:  PhaseSymbol,
		Kind:   KindSymbolNotFound,
		Symbol: name,
		Detail: fmt.Sprintf("no symbol %q in this address space", name),
	}
}

// UnsupportedPlatform creates an error for a missing lookup facility
func UnsupportedPlatform(what string) *Error {
	return &Error{
		Phase:  PhaseSymbol,
		Kind:   KindUnsupportedPlatform,
		Detail: fmt.Sprintf("%s is not available on this platform", what),
	}
}

// ContractViolation creates an error for an out-of-region write target
func ContractViolation(addr, base, size uint64) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindContractViolation,
		Addr:   addr,
		Detail: fmt.Sprintf("write target outside region [%#x, %#x)", base, base+size),
	}
}

// OutOfBounds creates an error for an access outside mapped memory
func OutOfBounds(phase Phase, addr, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Addr:   addr,
		Detail: fmt.Sprintf("%d bytes at %#x not mapped", length, addr),
	}
}

// NullPointer creates an error for a null value in a non-nullable field
func NullPointer(addr uint64) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNullPointer,
		Addr:   addr,
		Detail: "null value in non-nullable pointer field",
	}
}

// Displacement creates an error for a relative offset that does not fit
// the encoding
func Displacement(fieldAddr, target uint64) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindDisplacement,
		Addr:   fieldAddr,
		Detail: fmt.Sprintf("target %#x not reachable by 32-bit displacement", target),
	}
}

// MalformedName creates an error for an unresolvable type name encoding
func MalformedName(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindMalformedName,
		Symbol: name,
		Cause:  cause,
		Detail: "cannot resolve type name encoding",
	}
}

// ReadOnly creates an error for a write into an immutable address space
func ReadOnly(addr uint64) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindReadOnly,
		Addr:   addr,
		Detail: "address space is read-only",
	}
}

// InvalidImage creates an error for a snapshot that cannot be decoded
func InvalidImage(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseImage,
		Kind:   KindInvalidImage,
		Detail: detail,
		Cause:  cause,
	}
}

// Checksum creates an error for snapshot payload corruption
func Checksum(want, got uint64) *Error {
	return &Error{
		Phase:  PhaseImage,
		Kind:   KindChecksum,
		Detail: fmt.Sprintf("payload checksum %#x, expected %#x", got, want),
	}
}

// AllocationFailed creates an error for a failed foreign-space allocation
func AllocationFailed(size uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindAllocation,
		Cause:  cause,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
	}
}

// NotFound creates a generic not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
