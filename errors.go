package di

import "github.com/kestrelgraph/injector/internal/errs"

// CreationError is returned by New/NewChild when Build accumulates one or
// more configuration problems (spec.md §4.5 step 12, §6). It implements
// Unwrap() []error so errors.Is/errors.As can test against the sentinel
// kinds in this package's documentation.
type CreationError = errs.CreationError

// ProvisionError wraps a failure that occurred while producing an instance
// at runtime, carrying the chain of keys/fields that led to it (spec.md §6,
// §7 "ProvisionError").
type ProvisionError = errs.ProvisionError

// Sentinel error kinds, re-exported so callers can errors.Is against a
// specific failure class without importing the internal errs package
// (spec.md §7's taxonomy).
var (
	ErrMissingBinding         = errs.ErrMissingBinding
	ErrMissingImplementation  = errs.ErrMissingImplementation
	ErrDuplicateBinding       = errs.ErrDuplicateBinding
	ErrRecursiveBinding       = errs.ErrRecursiveBinding
	ErrForbiddenKeyType       = errs.ErrForbiddenKeyType
	ErrAmbiguousConversion    = errs.ErrAmbiguousConversion
	ErrConverterReturnedNil   = errs.ErrConverterReturnedNil
	ErrConverterWrongType     = errs.ErrConverterWrongType
	ErrKeyBlacklisted         = errs.ErrKeyBlacklisted
	ErrInnerClass             = errs.ErrInnerClass
	ErrUnresolvedDependency   = errs.ErrUnresolvedDependency
	ErrCycleConcrete          = errs.ErrCycleConcrete
	ErrUnrecoverableCycle     = errs.ErrUnrecoverableCycle
	ErrArrayOrEnumNotBindable = errs.ErrArrayOrEnumNotBindable
	ErrConstructorPanicked    = errs.ErrConstructorPanicked
	ErrProviderFailed         = errs.ErrProviderFailed
	ErrNullNotAllowed         = errs.ErrNullNotAllowed
	ErrRawProviderType        = errs.ErrRawProviderType
)
