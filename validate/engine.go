package validate

import (
	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/backend"
)

// Engine is the external metadata-construction engine the harness
// drives. The engine decides how many bytes an instantiation needs and
// where every field goes; this library only supplies the address-space
// operations it builds through.
//
// Construction is two-phase: AllocateGenericValueMetadata produces a
// laid-out but uninitialized record, InitializeGenericMetadata installs
// the generic arguments and computes the value-operations table and any
// layout-dependent trailing data.
//
// Regions returned by the allocate phase cover the full record: the
// value-operations slot first, the address point one header word in.
type Engine interface {
	// ExtraDataSize computes the trailing byte count for an
	// instantiation of the described type with the given pattern.
	ExtraDataSize(desc, pattern metaruntime.Buffer) (uint64, error)

	// AllocateGenericValueMetadata allocates and lays out an
	// uninitialized record for one instantiation.
	AllocateGenericValueMetadata(desc metaruntime.Buffer, args []metaruntime.GenericArgument, pattern metaruntime.Buffer, extraDataSize uint64) (backend.Region, error)

	// InitializeGenericMetadata completes a record produced by the
	// allocate phase.
	InitializeGenericMetadata(md backend.Region) error
}
