package lookup

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/abi"
	"github.com/typeforge/meta-runtime/backend"
	"github.com/typeforge/meta-runtime/errors"
	"github.com/typeforge/meta-runtime/trace"
)

// Substitutions supplies the two pure callbacks a name resolver needs to
// interpret references into an enclosing generic context: "generic
// parameter at (depth, index)" and "conformance witness table number
// index of type". Both answer from the already-installed argument vector
// of a partially built record; they never compute new metadata.
type Substitutions interface {
	GenericParameter(depth, index uint32) (metaruntime.Buffer, error)
	WitnessTable(typ metaruntime.Buffer, index uint32) (metaruntime.Buffer, error)
}

// NameResolver is the external service that parses a canonical type-name
// encoding and resolves it to a type, calling back into Substitutions
// for generic-context references. The grammar of the encoding is out of
// scope here.
type NameResolver interface {
	ResolveType(name string, subs Substitutions) (metaruntime.Buffer, error)
}

// Service resolves type names in the substitution context of a
// containing record.
type Service struct {
	Mem   metaruntime.Memory
	Names NameResolver
}

// NewService binds a name resolver to an address space.
func NewService(mem metaruntime.Memory, names NameResolver) *Service {
	return &Service{Mem: mem, Names: names}
}

// TypeByMangledName resolves name against the generic arguments already
// installed in the containing record. The record's argument vector must
// be populated before this call; the name may reference "parameter #N of
// the enclosing type". Resolution errors from the external service are
// surfaced unmodified, never retried.
func (s *Service) TypeByMangledName(containing backend.Region, name string) (metaruntime.Buffer, error) {
	md := abi.NewMetadata(s.Mem, containing.Buffer)
	subs := &metadataSubstitutions{md: md}
	result, err := s.Names.ResolveType(name, subs)
	if err != nil {
		trace.Logf(2, "getTypeByMangledName(%q) in %#x failed: %v", name, uint64(containing.Addr), err)
		return metaruntime.Buffer{}, err
	}
	trace.Logf(2, "getTypeByMangledName(%q) in %#x = %#x", name, uint64(containing.Addr), uint64(result.Addr))
	return result, nil
}

// metadataSubstitutions answers substitution queries from a record's
// installed argument vector: type arguments first, conformance witness
// tables after them, in signature order.
type metadataSubstitutions struct {
	md abi.Metadata
}

func (m *metadataSubstitutions) numTypeParams() (uint32, error) {
	descBuf, err := m.md.Description()
	if err != nil {
		return 0, err
	}
	desc := abi.TypeDescriptor{Mem: m.md.Mem, Buf: descBuf}
	n, err := desc.NumGenericParams()
	return uint32(n), err
}

func (m *metadataSubstitutions) GenericParameter(depth, index uint32) (metaruntime.Buffer, error) {
	if depth != 0 {
		// Nested generic contexts are flattened by the external
		// resolver before it reaches the argument vector.
		return metaruntime.Buffer{}, errors.New(errors.PhaseLookup, errors.KindMalformedName).
			Detail("generic parameter depth %d out of range", depth).
			Build()
	}
	n, err := m.numTypeParams()
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	if index >= n {
		return metaruntime.Buffer{}, errors.New(errors.PhaseLookup, errors.KindMalformedName).
			Detail("generic parameter index %d out of range (%d params)", index, n).
			Build()
	}
	result, err := m.md.GenericArgument(index)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	trace.Logf(2, "substitutions.GenericParameter(%d, %d) = %#x", depth, index, uint64(result.Addr))
	return result, nil
}

func (m *metadataSubstitutions) WitnessTable(typ metaruntime.Buffer, index uint32) (metaruntime.Buffer, error) {
	n, err := m.numTypeParams()
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	result, err := m.md.GenericArgument(n + index)
	if err != nil {
		return metaruntime.Buffer{}, err
	}
	trace.Logf(2, "substitutions.WitnessTable(%#x, %d) = %#x", uint64(typ.Addr), index, uint64(result.Addr))
	return result, nil
}
