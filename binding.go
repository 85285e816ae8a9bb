package di

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// factoryFunc produces an instance given resolved dependency values, in the
// same order as Binding.Dependencies().
type factoryFunc func(rc *requestContext, args []reflect.Value) (any, error)

// bindingStatus implements the state machine of spec.md §4.4.7.
type bindingStatus uint8

const (
	statusDeclared bindingStatus = iota
	statusRecorded
	statusUninitialized
	statusInitialized
	statusActive
	statusInvalid
)

// Binding is the recipe for producing instances of a Key (spec.md §3).
type Binding interface {
	Key() key.Key
	Source() errs.Source
	Scoping() Scoping
	// Dependencies returns the keys this binding needs resolved before New
	// can be called, in declaration order (constructor params, then field/
	// method injection points appended by the construction engine).
	Dependencies() []key.Key
	// New constructs an instance given resolved dependency values.
	New(rc *requestContext, args []reflect.Value) (any, error)
	// status/markInvalid/invalidErr implement the Binding lifecycle: once a
	// binding fails resolution (e.g. an unresolved dependency at validate
	// time), every subsequent request for it fails with the same original
	// error rather than re-attempting resolution (spec.md §4.4.7).
	status() bindingStatus
	setStatus(bindingStatus)
	markInvalid(err error)
	invalidErr() error
	// Eager reports whether AsEagerSingleton() was used, consulted by
	// phase 14's preload in Development stage (spec.md §4.5 step 14).
	Eager() bool
	// ID is a per-binding identifier stable for the binding's lifetime,
	// independent of its Key (which two racing JIT bindings for the same
	// key can transiently share before one wins). dilog uses it to
	// correlate build/provision log lines for the same binding across
	// phases (adapted from the teacher's resolveVisitor, which keys its
	// visited-set by a Service's uuid.UUID rather than its reflect.Type).
	ID() uuid.UUID
}

// bindingBase is embedded by every concrete Binding implementation to share
// the lifecycle bookkeeping (spec.md §4.4.7).
type bindingBase struct {
	id      uuid.UUID
	key     key.Key
	source  errs.Source
	scoping Scoping
	st      bindingStatus
	invErr  error
	eager   bool
}

// newBindingBase is the single place a bindingBase is assembled, so every
// binding variant gets a fresh ID without repeating uuid.New() at each call
// site.
func newBindingBase(k key.Key, src errs.Source, scoping Scoping, st bindingStatus) bindingBase {
	return bindingBase{id: uuid.New(), key: k, source: src, scoping: scoping, st: st}
}

func (b *bindingBase) ID() uuid.UUID         { return b.id }
func (b *bindingBase) Key() key.Key          { return b.key }
func (b *bindingBase) Source() errs.Source   { return b.source }
func (b *bindingBase) Scoping() Scoping      { return b.scoping }
func (b *bindingBase) status() bindingStatus { return b.st }
func (b *bindingBase) setStatus(s bindingStatus) {
	b.st = s
}
func (b *bindingBase) markInvalid(err error) {
	b.st = statusInvalid
	b.invErr = err
}
func (b *bindingBase) invalidErr() error { return b.invErr }
func (b *bindingBase) Eager() bool       { return b.eager }
func (b *bindingBase) setEager(v bool)   { b.eager = v }

// --- ToInstance ---------------------------------------------------------

// instanceBinding implements Binding for Bind(...).ToInstance(value).
type instanceBinding struct {
	bindingBase
	value any
}

func newInstanceBinding(k key.Key, value any, src errs.Source) *instanceBinding {
	return &instanceBinding{
		bindingBase: newBindingBase(k, src, Singleton, statusActive),
		value:       value,
	}
}

func (b *instanceBinding) Dependencies() []key.Key { return nil }
func (b *instanceBinding) New(_ *requestContext, _ []reflect.Value) (any, error) {
	return b.value, nil
}

// --- ToProviderInstance --------------------------------------------------

// Provider is a user-supplied factory object (spec.md §3
// "ToProviderInstance(provider)").
type Provider interface {
	Get() (any, error)
}

type providerFunc func() (any, error)

func (f providerFunc) Get() (any, error) { return f() }

// ProviderFunc adapts a plain closure to Provider, for callers who'd rather
// not declare a named type just to satisfy Get() (spec.md §6's
// toProvider(instance) accepts any factory object).
type ProviderFunc func() (any, error)

func (f ProviderFunc) Get() (any, error) { return f() }

type providerInstanceBinding struct {
	bindingBase
	provider Provider
}

func newProviderInstanceBinding(k key.Key, p Provider, scoping Scoping, src errs.Source) *providerInstanceBinding {
	return &providerInstanceBinding{
		bindingBase: newBindingBase(k, src, scoping, statusActive),
		provider:    p,
	}
}

func (b *providerInstanceBinding) Dependencies() []key.Key { return nil }
func (b *providerInstanceBinding) New(_ *requestContext, _ []reflect.Value) (any, error) {
	v, err := b.provider.Get()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrProviderFailed, "key %s: %v", b.key, err)
	}
	return v, nil
}

// --- ToProviderKey (indirection) -----------------------------------------

// providerKeyBinding resolves providerKey, which must yield a Provider, and
// delegates to it (spec.md §3 "ToProviderKey(key)").
type providerKeyBinding struct {
	bindingBase
	providerKey key.Key
}

func newProviderKeyBinding(k, providerKey key.Key, scoping Scoping, src errs.Source) *providerKeyBinding {
	return &providerKeyBinding{
		bindingBase: newBindingBase(k, src, scoping, statusActive),
		providerKey: providerKey,
	}
}

func (b *providerKeyBinding) Dependencies() []key.Key { return []key.Key{b.providerKey} }
func (b *providerKeyBinding) New(_ *requestContext, args []reflect.Value) (any, error) {
	p, ok := args[0].Interface().(Provider)
	if !ok {
		return nil, errs.Wrapf(errs.ErrRawProviderType, "key %s does not resolve to a Provider", b.providerKey)
	}
	return p.Get()
}

// --- ToKey (alias) ---------------------------------------------------------

// aliasBinding resolves to whatever targetKey resolves to (spec.md §3
// "ToKey(targetKey)"). ToKey(self) is rejected at registration time.
type aliasBinding struct {
	bindingBase
	targetKey key.Key
}

func newAliasBinding(k, target key.Key, src errs.Source) *aliasBinding {
	return &aliasBinding{
		bindingBase: newBindingBase(k, src, NoScope, statusActive),
		targetKey:   target,
	}
}

func (b *aliasBinding) Dependencies() []key.Key { return []key.Key{b.targetKey} }
func (b *aliasBinding) New(_ *requestContext, args []reflect.Value) (any, error) {
	return args[0].Interface(), nil
}

// --- Untargeted / Constructor (JIT "bind type to itself") ------------------

// constructorBinding implements both Untargeted(type) and the synthesized
// Constructor(type, ctor) JIT variant; by the time one exists the
// constructor has always been chosen, so they share an implementation
// (spec.md §3 lists them as separate variants purely to describe how they
// originate, not because their runtime shape differs).
type constructorBinding struct {
	bindingBase
	typ    reflect.Type
	ctor   reflect.Value // func(deps...) (T[, error])
	deps   []key.Key
	points []InjectionPoint
	proxy  ConstructionProxyFactory

	// pendingCtor holds a ToConstructor-supplied function between phase 5
	// (the stub is recorded so duplicate-binding detection sees it right
	// away) and phase 9 (where it is actually resolved into typ/deps/
	// points). Untargeted bindings leave this zero and fall back to
	// zeroValueConstructor in phase 9.
	pendingCtor reflect.Value
}

func (b *constructorBinding) Dependencies() []key.Key {
	all := make([]key.Key, 0, len(b.deps)+len(b.points))
	all = append(all, b.deps...)
	for _, p := range b.points {
		all = append(all, p.Key)
	}
	return all
}

func (b *constructorBinding) New(rc *requestContext, args []reflect.Value) (any, error) {
	ctorArgs := args[:len(b.deps)]
	fieldArgs := args[len(b.deps):]

	proxy := b.proxy
	if proxy == nil {
		proxy = defaultProxyFactory
	}

	val, err := proxy.Invoke(b.ctor, ctorArgs)
	if err != nil {
		return nil, errs.Wrapf(err, "error injecting constructor, key %s", b.key)
	}
	if val.Kind() != reflect.Ptr {
		// Call results are not addressable; injectPoints needs an
		// addressable value to set fields and call pointer-receiver methods.
		addressable := reflect.New(val.Type()).Elem()
		addressable.Set(val)
		val = addressable
	}

	if err := injectPoints(rc, val, b.points, fieldArgs); err != nil {
		return nil, err
	}

	return val.Interface(), nil
}

// --- Constant / ConvertedConstant ------------------------------------------

// constantBinding implements BindConstant(...).To(value) (spec.md §3
// "Constant(value)").
type constantBinding struct {
	bindingBase
	value any
}

func newConstantBinding(k key.Key, value any, src errs.Source) *constantBinding {
	return &constantBinding{
		bindingBase: newBindingBase(k, src, Singleton, statusActive),
		value:       value,
	}
}

func (b *constantBinding) Dependencies() []key.Key { return nil }
func (b *constantBinding) New(_ *requestContext, _ []reflect.Value) (any, error) {
	return b.value, nil
}

// convertedConstantBinding is the JIT binding produced when a string
// constant is converted to a requested non-string type (spec.md §3
// "ConvertedConstant(value, originalStringKey)").
type convertedConstantBinding struct {
	bindingBase
	value       any
	originalKey key.Key
}

func newConvertedConstantBinding(k key.Key, value any, original key.Key, src errs.Source) *convertedConstantBinding {
	return &convertedConstantBinding{
		bindingBase: newBindingBase(k, src, Singleton, statusActive),
		value:       value,
		originalKey: original,
	}
}

func (b *convertedConstantBinding) Dependencies() []key.Key { return nil }
func (b *convertedConstantBinding) New(_ *requestContext, _ []reflect.Value) (any, error) {
	return b.value, nil
}

// --- ProviderBinding (synthetic "factory of X") ----------------------------
//
// There is no binding variant here that auto-infers "this constructor
// parameter wants a factory for X rather than X itself": an instantiated
// generic type's reflect.Type exposes its type argument only as an
// unparsed name string (e.g. "ProviderHandle[main.Foo]"), with no
// structured API to recover it, so there is no reliable way to notice a
// ProviderOf[Foo] constructor parameter purely by reflecting on it. The
// same capability is exposed explicitly instead, via
// Binder.GetProvider/Injector.GetProvider returning a *ProviderHandle,
// rather than as an auto-inferred constructor dependency kind.
