package di

import (
	"reflect"
	"sync"

	"github.com/kestrelgraph/injector/internal/errs"
)

// ConstructionProxyFactory abstracts "given a constructor descriptor,
// produce an invocable that calls it with an argument array" (spec.md §9
// "Reflective invocation"). The core only depends on this interface; a
// generated/codegen proxy factory could be substituted without touching
// the construction engine.
type ConstructionProxyFactory interface {
	Invoke(ctor reflect.Value, args []reflect.Value) (result reflect.Value, err error)
}

type reflectProxyFactory struct{}

// Invoke calls ctor via reflect.Value.Call, recovering a panicking
// constructor into an error (spec.md §4.4.3 step 5 "On constructor
// throwing: wrap as ErrorInjectingConstructor with cause").
func (reflectProxyFactory) Invoke(ctor reflect.Value, args []reflect.Value) (result reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Wrapf(panicError{r}, "constructor %s panicked", ctor.Type())
		}
	}()

	out := ctor.Call(args)

	switch len(out) {
	case 1:
		return out[0], nil
	case 2:
		if !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		return out[0], nil
	default:
		return reflect.Value{}, errs.Errorf("constructor %s must return (T) or (T, error)", ctor.Type())
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return errs.Errorf("%v", p.v).Error() }

var defaultProxyFactory ConstructionProxyFactory = reflectProxyFactory{}

// --- Interface-cycle proxies ----------------------------------------------
//
// spec.md §9 "Dynamic proxies for circular interface resolution" assumes a
// runtime that can synthesize an implementation of an arbitrary interface
// on demand. Go's reflect package cannot generate new method sets at
// runtime, so the core instead requires a small, explicitly registered
// forwarder per interface that can appear in a cycle (Redesign Flag #1 in
// SPEC_FULL.md). The forwarder is typically five lines:
//
//	type iBProxy struct{ delegate IB }
//	func (p *iBProxy) Method() { p.delegate.Method() }
//
//	di.RegisterInterfaceProxy(func() (IB, func(IB)) {
//		p := &iBProxy{}
//		return p, func(d IB) { p.delegate = d }
//	})

// InterfaceProxyFactory builds a forwarding proxy for an interface type T
// and a setter that installs the real delegate once construction completes.
type InterfaceProxyFactory[T any] func() (proxy T, setDelegate func(T))

type erasedProxyFactory func() (proxy any, setDelegate func(any))

var (
	interfaceProxyMu        sync.RWMutex
	interfaceProxyFactories = map[reflect.Type]erasedProxyFactory{}
)

// RegisterInterfaceProxy registers a forwarding proxy factory for interface
// type T, allowing dependency cycles through T to resolve instead of
// failing with a circular-dependency error (spec.md §4.4.3 step 2, §8
// scenario 5).
func RegisterInterfaceProxy[T any](factory InterfaceProxyFactory[T]) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	interfaceProxyMu.Lock()
	defer interfaceProxyMu.Unlock()
	interfaceProxyFactories[t] = func() (any, func(any)) {
		proxy, setter := factory()
		return proxy, func(d any) {
			setter(d.(T))
		}
	}
}

func lookupInterfaceProxy(t reflect.Type) (erasedProxyFactory, bool) {
	interfaceProxyMu.RLock()
	defer interfaceProxyMu.RUnlock()
	f, ok := interfaceProxyFactories[t]
	return f, ok
}
