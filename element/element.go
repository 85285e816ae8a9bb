// Package element implements the replayable, introspectable record of every
// configuration action a module performs (spec.md §3 "Lifecycle", §4.2
// "Element Stream").
//
// Element payloads are kept free of the root di package's Binding/Scope
// types on purpose: the stream is recorded once, by the Binder, and
// interpreted later, per-kind, by the build pipeline's phase processors
// (spec.md §4.5 steps 2-9). Keeping the two separated means the recording
// side never needs to know how a binding will eventually be resolved.
package element

import (
	"reflect"

	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// Kind identifies which of spec.md §4.2's element variants an Element is.
type Kind int

const (
	KindMessage Kind = iota
	KindError
	KindInterceptor
	KindScope
	KindStaticInjection
	KindInstanceInjection
	KindConstant
	KindConverter
	KindBinding
	KindGetProvider
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "Message"
	case KindError:
		return "Error"
	case KindInterceptor:
		return "BindInterceptor"
	case KindScope:
		return "BindScope"
	case KindStaticInjection:
		return "RequestStaticInjection"
	case KindInstanceInjection:
		return "RequestInjection"
	case KindConstant:
		return "BindConstant"
	case KindConverter:
		return "ConvertToTypes"
	case KindBinding:
		return "Binding"
	case KindGetProvider:
		return "GetProvider"
	default:
		return "Unknown"
	}
}

// Element is one recorded configuration call, carrying the source token
// used for error-message attribution (spec.md §4.2).
type Element struct {
	Kind    Kind
	Source  errs.Source
	Payload any
}

// Stream is the finite, ordered sequence of Elements produced by running
// modules. It is consumed exactly once by the build pipeline; after
// Drain, it is empty (spec.md §4.2 "The stream is finite and consumed in
// order ... after consumption it is empty").
type Stream struct {
	elements []Element
}

// Append adds an element to the stream.
func (s *Stream) Append(e Element) {
	s.elements = append(s.elements, e)
}

// Drain returns all recorded elements and empties the stream.
func (s *Stream) Drain() []Element {
	out := s.elements
	s.elements = nil
	return out
}

// Len reports the number of elements currently buffered.
func (s *Stream) Len() int {
	return len(s.elements)
}

// Payload types, one per Kind. These are intentionally plain data: the
// build pipeline's phase processors are the only code that interprets them.

type MessagePayload struct {
	Text string
}

type ErrorPayload struct {
	Err error
}

type InterceptorPayload struct {
	// Method interception is an AOP concern the core only needs to record
	// and replay; it never executes interceptors itself (spec.md §1,
	// "the bytecode-proxy mechanism for AOP interceptors" is out of core
	// scope). Matcher/Interceptor are kept as `any` so a higher layer can
	// supply whatever matcher/interceptor shape it wants.
	Matcher     any
	Interceptor any
}

type ScopePayload struct {
	AnnotationType reflect.Type
	Scope          any
}

// StaticInjectionPayload names one static-injection target. spec.md §3
// describes this as a class whose static fields/methods get injected; Go
// has no static fields, only package-level variables, which reflection
// cannot enumerate or address from a bare reflect.Type. Target is instead
// a pointer straight to the package-level variable (or a struct grouping
// several) the caller wants injected, the direct Go analogue.
type StaticInjectionPayload struct {
	Target any
}

type InstanceInjectionPayload struct {
	Instance any
}

type ConstantPayload struct {
	Key   key.Key
	Value any
}

type ConverterPayload struct {
	Matches func(reflect.Type) bool
	Convert func(string) (any, error)
}

// BindingPayload describes one `Binding<T>` element: a key plus a target
// description. TargetKind says how to interpret Target; see the binding
// variants in spec.md §3.
type BindingPayload struct {
	Key       key.Key
	Target    any
	TargetKind TargetKind
	Scoping   any // di.Scoping, late-bound to avoid an import cycle
	Eager     bool
}

type TargetKind int

const (
	TargetInstance TargetKind = iota
	TargetProviderInstance
	TargetProviderKey
	TargetKey
	TargetUntargeted
	// TargetConstructor is a Go-native addition (not named in spec.md §3):
	// an explicit constructor function supplied at bind time. It exists
	// because Go has no attribute that marks "the injectable constructor"
	// the way Java constructor annotations do, so any type with
	// constructor-parameter dependencies needs its constructor supplied
	// explicitly rather than discovered by reflection (see construct.go's
	// zeroValueConstructor doc comment).
	TargetConstructor
)

type GetProviderPayload struct {
	Key key.Key
	// Handle is the *di.ProviderHandle returned to the caller at
	// configuration time; phase 8 backfills its injector reference once the
	// Injector exists and eagerly resolves it to surface missing-binding
	// errors early (spec.md §4.5 step 8). Declared as `any` for the same
	// reason as BindingPayload.Scoping: avoiding an import cycle with the
	// root di package.
	Handle any
}
