// Package errors provides structured error types for the meta-runtime
// library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). Two classes share the type: expected errors that a
// caller handles and moves on from (symbol_not_found,
// unsupported_platform, malformed_name), and contract violations that
// indicate a defect in the construction engine and must be escalated
// (contract_violation). Use IsContractViolation to distinguish them.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindNullPointer).
//		Addr(fieldAddr).
//		Detail("relative field stores zero").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SymbolNotFound("type metadata for Dictionary")
//	err := errors.ContractViolation(target, base, size)
//
// All errors implement the standard error interface and support
// errors.Is/As; Is matches on Phase and Kind.
package errors
