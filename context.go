package di

import (
	"reflect"

	"github.com/kestrelgraph/injector/key"
)

// requestContext is the Go-native replacement for spec.md §5's thread-local
// InternalContext: rather than stashing per-call scratch space behind a
// package-level thread-local (which Go has no primitive for, and which
// idiomatic Go code avoids), the scratch space is allocated once at the
// outermost provisioning call and threaded explicitly as a parameter down
// every nested resolve/construct call on the same goroutine stack. This is
// semantically identical - isolated per top-level call, shared across
// recursive calls within it - without global mutable state (see
// SPEC_FULL.md §5 and the Redesign Flags section).
type requestContext struct {
	injector     *Injector
	constructing map[key.Key]*constructionState
}

func newRequestContext(inj *Injector) *requestContext {
	return &requestContext{
		injector:     inj,
		constructing: make(map[key.Key]*constructionState),
	}
}

// constructionState is the per-key, per-request scratch space of spec.md §3
// "ConstructionContext": a constructing flag, the current under-
// construction reference (for reentry during a type's own field/method
// injection), and any interface proxies awaiting back-fill.
type constructionState struct {
	constructing bool
	current      reflect.Value
	hasCurrent   bool
	pendingProxies []func(reflect.Value)
}

func (rc *requestContext) stateFor(k key.Key) *constructionState {
	cs, ok := rc.constructing[k]
	if !ok {
		cs = &constructionState{}
		rc.constructing[k] = cs
	}
	return cs
}

// peek returns k's construction state without creating one, so a caller can
// test "has resolving k already started in this request" without itself
// starting it.
func (rc *requestContext) peek(k key.Key) (*constructionState, bool) {
	cs, ok := rc.constructing[k]
	return cs, ok
}
