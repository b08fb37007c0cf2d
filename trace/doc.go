// Package trace provides the verbosity-gated diagnostic sink for the
// metadata construction backend.
//
// The level is read from METARUNTIME_VALIDATE_METADATA_BUILDER on every
// call so that changing the variable mid-run (from a debugger) takes
// effect immediately. Disabled calls cost one environment read and no
// formatting.
//
// Textual output follows the "file:line:function: message" shape on
// stderr. Structured output goes through a zap logger that defaults to
// no-op; install one with SetLogger to capture the trace elsewhere.
package trace
