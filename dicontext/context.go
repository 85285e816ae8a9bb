// Package dicontext stores an *di.Injector on a context.Context, the way a
// per-request scope is threaded through an HTTP handler chain (see dihttp).
package dicontext

import (
	"context"
	"reflect"

	"github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

type injectorContextKey struct{}

// WithInjector returns a new context.Context carrying inj.
func WithInjector(ctx context.Context, inj *di.Injector) context.Context {
	return context.WithValue(ctx, injectorContextKey{}, inj)
}

// Injector returns the *di.Injector stored on ctx, or nil if none is present.
func Injector(ctx context.Context) *di.Injector {
	if inj, ok := ctx.Value(injectorContextKey{}).(*di.Injector); ok {
		return inj
	}
	return nil
}

// Resolve a value of type Service from the Injector stored on ctx.
//
// This returns an error if ctx carries no Injector, or the service cannot
// be resolved.
func Resolve[Service any](ctx context.Context) (Service, error) {
	var val Service
	t := reflect.TypeFor[Service]()

	inj := Injector(ctx)
	if inj == nil {
		return val, errs.Errorf("dicontext.Resolve %s: no injector on context", t)
	}

	anyVal, err := inj.GetInstance(key.Of(t))
	if err != nil {
		return val, errs.Wrapf(err, "dicontext.Resolve %s", t)
	}
	if anyVal != nil {
		val = anyVal.(Service)
	}
	return val, nil
}

// MustResolve resolves a value of type Service from the Injector stored on
// ctx, panicking if ctx carries no Injector or resolution fails.
func MustResolve[Service any](ctx context.Context) Service {
	val, err := Resolve[Service](ctx)
	if err != nil {
		panic(err)
	}
	return val
}
