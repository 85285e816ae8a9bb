package di

import (
	"fmt"
	"reflect"

	"github.com/kestrelgraph/injector/element"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// Module configures an Injector via a Binder (spec.md §6 "Module-facing
// configuration API"). Configure may call Install to compose other
// modules; every call is recorded as one Element, attributing the user's
// call site as its Source.
type Module interface {
	Configure(b *Binder)
}

// ModuleFunc adapts a plain function to Module, mirroring the teacher's own
// functional-option idiom for lightweight, closure-based configuration.
type ModuleFunc func(b *Binder)

func (f ModuleFunc) Configure(b *Binder) { f(b) }

// Binder is the recording surface every Module writes to; it never
// resolves or constructs anything itself; it only appends element.Elements
// to the stream the build pipeline later interprets (spec.md §4.2).
type Binder struct {
	stream *element.Stream
}

func newBinder() *Binder {
	return &Binder{stream: &element.Stream{}}
}

func (b *Binder) source() errs.Source {
	c := errs.CaptureCaller(2)
	return c
}

// Install runs m against the same Binder, so its elements interleave with
// the installing module's in call order (spec.md §6 "install(module)").
func (b *Binder) Install(m Module) {
	m.Configure(b)
}

// AddMessage records a configuration error given only as a formatted
// message (spec.md §6 "addError(message, args...)" without an underlying
// error); Build reports it in its CreationError.
func (b *Binder) AddMessage(format string, args ...any) {
	b.stream.Append(element.Element{
		Kind:    element.KindMessage,
		Source:  b.source(),
		Payload: element.MessagePayload{Text: fmt.Sprintf(format, args...)},
	})
}

// AddError records a configuration error directly (spec.md §6 "addError
// (throwable)").
func (b *Binder) AddError(err error) {
	b.stream.Append(element.Element{
		Kind:    element.KindError,
		Source:  b.source(),
		Payload: element.ErrorPayload{Err: err},
	})
}

// BindInterceptor records an interceptor binding; the core never executes
// interceptors itself (spec.md §1, AOP interception is out of core scope),
// but the element is still recorded for a higher layer to act on.
func (b *Binder) BindInterceptor(matcher, interceptor any) {
	b.stream.Append(element.Element{
		Kind:    element.KindInterceptor,
		Source:  b.source(),
		Payload: element.InterceptorPayload{Matcher: matcher, Interceptor: interceptor},
	})
}

// BindScope registers scope under annotationType (spec.md §6 "bindScope
// (qualifier-type, scope)").
func (b *Binder) BindScope(annotationType reflect.Type, scope Scoping) {
	b.stream.Append(element.Element{
		Kind:    element.KindScope,
		Source:  b.source(),
		Payload: element.ScopePayload{AnnotationType: annotationType, Scope: scope},
	})
}

// RequestStaticInjection records pointers to package-level variables whose
// injection points should be populated once, unconditionally, during
// Build's inject phase (spec.md §6 "requestStaticInjection(types...)";
// see element.StaticInjectionPayload for why Go takes pointers rather than
// types here).
func (b *Binder) RequestStaticInjection(targets ...any) {
	for _, t := range targets {
		b.stream.Append(element.Element{
			Kind:    element.KindStaticInjection,
			Source:  b.source(),
			Payload: element.StaticInjectionPayload{Target: t},
		})
	}
}

// RequestInjection registers instance with the initializer (spec.md §6
// "requestInjection(instance)").
func (b *Binder) RequestInjection(instance any) {
	b.stream.Append(element.Element{
		Kind:    element.KindInstanceInjection,
		Source:  b.source(),
		Payload: element.InstanceInjectionPayload{Instance: instance},
	})
}

// ConvertToTypes registers a type converter (spec.md §4.4.6).
func (b *Binder) ConvertToTypes(matches func(reflect.Type) bool, convert func(string) (any, error)) {
	b.stream.Append(element.Element{
		Kind:    element.KindConverter,
		Source:  b.source(),
		Payload: element.ConverterPayload{Matches: matches, Convert: convert},
	})
}

// GetProvider records a provider-handle request, eagerly resolved at phase
// 8 to surface missing-binding errors early (spec.md §6 "getProvider(key)",
// §4.5 step 8).
func (b *Binder) GetProvider(k key.Key) *ProviderHandle {
	h := &ProviderHandle{key: k}
	b.stream.Append(element.Element{
		Kind:    element.KindGetProvider,
		Source:  b.source(),
		Payload: element.GetProviderPayload{Key: k, Handle: h},
	})
	return h
}

// Bind begins a fluent binding chain for t (spec.md §6 "bind(type
// [, qualifier])"). Absent a terminal call, the binding defaults to
// Untargeted: the key's own raw type is constructed via JIT inference.
func (b *Binder) Bind(t reflect.Type) *BindingBuilder {
	return b.bindKey(key.Of(t))
}

// BindQualified begins a fluent binding chain for t qualified by
// qualifierValue.
func (b *Binder) BindQualified(t reflect.Type, qualifierValue any) *BindingBuilder {
	return b.bindKey(key.OfQualifiedValue(t, qualifierValue))
}

func (b *Binder) bindKey(k key.Key) *BindingBuilder {
	payload := &element.BindingPayload{Key: k, TargetKind: element.TargetUntargeted, Scoping: NoScope}
	b.stream.Append(element.Element{Kind: element.KindBinding, Source: b.source(), Payload: payload})
	return &BindingBuilder{payload: payload}
}

// Bind is generic sugar over Binder.Bind for call sites that know T at
// compile time (the teacher's reflect.TypeFor[T]() idiom).
func Bind[T any](b *Binder) *BindingBuilder {
	return b.Bind(reflect.TypeFor[T]())
}

// BindQualified is the generic form of Binder.BindQualified.
func BindQualified[T any](b *Binder, qualifierValue any) *BindingBuilder {
	return b.BindQualified(reflect.TypeFor[T](), qualifierValue)
}

// BindingBuilder is the fluent chain returned by Bind/BindQualified. Each
// terminal method (ToInstance, ToProvider*, To, ToConstructor) overwrites
// the already-recorded Untargeted default via the shared payload pointer,
// since Go has no statement-level "finalizer" to run when the chain is
// abandoned.
type BindingBuilder struct {
	payload *element.BindingPayload
}

func (bb *BindingBuilder) ToInstance(value any) *TerminalBinding {
	bb.payload.TargetKind = element.TargetInstance
	bb.payload.Target = value
	bb.payload.Scoping = Singleton
	return &TerminalBinding{payload: bb.payload}
}

func (bb *BindingBuilder) ToProviderInstance(p Provider) *TerminalBinding {
	bb.payload.TargetKind = element.TargetProviderInstance
	bb.payload.Target = p
	return &TerminalBinding{payload: bb.payload}
}

func (bb *BindingBuilder) ToProviderKey(providerKey key.Key) *TerminalBinding {
	bb.payload.TargetKind = element.TargetProviderKey
	bb.payload.Target = providerKey
	return &TerminalBinding{payload: bb.payload}
}

func (bb *BindingBuilder) To(targetKey key.Key) *TerminalBinding {
	bb.payload.TargetKind = element.TargetKey
	bb.payload.Target = targetKey
	return &TerminalBinding{payload: bb.payload}
}

func (bb *BindingBuilder) ToType(t reflect.Type) *TerminalBinding {
	return bb.To(key.Of(t))
}

// ToConstructor supplies the constructor function explicitly (Go-native
// addition replacing attribute-discovered "injectable constructors"; see
// construct.go's zeroValueConstructor doc comment). ctor must be a function
// returning (T) or (T, error).
func (bb *BindingBuilder) ToConstructor(ctor any) *TerminalBinding {
	bb.payload.TargetKind = element.TargetConstructor
	bb.payload.Target = ctor
	return &TerminalBinding{payload: bb.payload}
}

// TerminalBinding supports the trailing .In(scope)/.AsEagerSingleton()
// modifiers (spec.md §6 "optionally terminated by in(scope) or
// asEagerSingleton()").
type TerminalBinding struct {
	payload *element.BindingPayload
}

func (t *TerminalBinding) In(scope Scoping) *TerminalBinding {
	t.payload.Scoping = scope
	return t
}

func (t *TerminalBinding) AsEagerSingleton() *TerminalBinding {
	t.payload.Scoping = Singleton
	t.payload.Eager = true
	return t
}

// BindConstant begins a constant binding (spec.md §6 "bindConstant()
// .annotatedWith(...).to(...)").
func (b *Binder) BindConstant() *ConstantBinder {
	return &ConstantBinder{binder: b}
}

type ConstantBinder struct {
	binder    *Binder
	qualifier any
}

func (cb *ConstantBinder) AnnotatedWith(qualifierValue any) *ConstantBinder {
	cb.qualifier = qualifierValue
	return cb
}

// To records the constant's value; its type (string, a numeric kind, bool,
// or an enum-like type) becomes part of the key.
func (cb *ConstantBinder) To(value any) {
	t := reflect.TypeOf(value)
	k := key.Of(t)
	if cb.qualifier != nil {
		k = key.OfQualifiedValue(t, cb.qualifier)
	}
	cb.binder.stream.Append(element.Element{
		Kind:    element.KindConstant,
		Source:  cb.binder.source(),
		Payload: element.ConstantPayload{Key: k, Value: value},
	})
}
