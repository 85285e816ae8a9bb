package errs

// Kind sentinels for the error taxonomy of spec.md §7. Each Message or
// wrapped construction error can be tested against these with errors.Is.
var (
	// Configuration errors.
	ErrMissingBinding       = New("no binding found for key")
	ErrMissingImplementation = New("no implementation could be constructed for type")
	ErrDuplicateBinding     = New("a binding is already configured for this key")
	ErrScopeOnAbstractType  = New("a scope annotation was found on an abstract type")
	ErrQualifierNotRuntime  = New("qualifier annotation is missing runtime retention")
	ErrNotAQualifier        = New("annotation is not marked as a qualifier")
	ErrRecursiveBinding     = New("binding is recursive")
	ErrForbiddenKeyType     = New("this type may not be bound directly")
	ErrAmbiguousConversion  = New("more than one type converter matched this conversion")
	ErrConverterReturnedNil = New("type converter returned a nil value")
	ErrConverterWrongType   = New("type converter returned a value of the wrong type")
	ErrKeyBlacklisted       = New("a child injector already has an explicit binding for this key")

	// Construction-time static errors.
	ErrInnerClass            = New("instance-scoped nested types cannot be constructed")
	ErrAmbiguousConstructor  = New("more than one injectable constructor was found")
	ErrOptionalConstructor   = New("an injectable constructor cannot be marked optional")
	ErrUnresolvedDependency  = New("a dependency of this binding could not be resolved")
	ErrCycleConcrete         = New("circular dependency between concrete types")
	ErrUnrecoverableCycle    = New("circular dependency through an interface with no registered proxy")
	ErrArrayOrEnumNotBindable = New("arrays and enums cannot be constructed")

	// Provision-time errors.
	ErrConstructorPanicked = New("constructor function panicked")
	ErrProviderFailed      = New("provider returned an error")
	ErrNullNotAllowed      = New("a non-nullable injection point received a nil value")

	// Usage errors.
	ErrRawProviderType  = New("a raw Provider type cannot be bound or resolved")
	ErrForbiddenJITType = New("just-in-time bindings are not allowed for this type")

	// Lifecycle / container-wide errors.
	ErrInjectorClosed  = New("injector closed")
	ErrBuildFailed     = New("injector failed to build")
)
