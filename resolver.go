package di

import (
	"reflect"

	"github.com/kestrelgraph/injector/dilog"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// getBindingOrFail implements spec.md §4.3's resolution algorithm: parent
// read-through, then explicit, then a memoized JIT binding.
func (inj *Injector) getBindingOrFail(k key.Key, es *errorsSource) (Binding, error) {
	if inj.parent != nil {
		if pb, ok := inj.parent.lookupScopedForChild(k); ok {
			return pb, nil
		}
	}

	if b, ok := inj.explicit[k]; ok {
		return b, nil
	}

	inj.mu.Lock()
	if b, ok := inj.jit[k]; ok {
		inj.mu.Unlock()
		return b, nil
	}
	if _, blocked := inj.blacklist[k]; blocked {
		inj.mu.Unlock()
		return nil, errs.Wrapf(errs.ErrKeyBlacklisted, "key %s", k)
	}
	inj.mu.Unlock()

	b, err := inj.createJITBinding(k, es)
	if err != nil {
		return nil, err
	}

	inj.mu.Lock()
	if existing, ok := inj.jit[k]; ok {
		inj.mu.Unlock()
		return existing, nil
	}
	inj.jit[k] = b
	inj.mu.Unlock()

	return b, nil
}

// lookupScopedForChild returns a binding from this injector (explicit or
// already-memoized JIT) only if it is scoped (non-NoScope), adopted by a
// child injector as a read-through binding (spec.md §4.3 step 1).
func (inj *Injector) lookupScopedForChild(k key.Key) (Binding, bool) {
	if b, ok := inj.explicit[k]; ok && b.Scoping().cached() {
		return b, true
	}
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if b, ok := inj.jit[k]; ok && b.Scoping().cached() {
		return b, true
	}
	if inj.parent != nil {
		return inj.parent.lookupScopedForChild(k)
	}
	return nil, false
}

// putExplicit validates and records an explicit binding, then pushes the
// key into the parent's blacklist so the parent can never JIT-create it
// out from under this injector (spec.md §4.3 "putExplicit").
func (inj *Injector) putExplicit(b Binding) error {
	k := b.Key()

	if err := checkForbiddenKeyType(k); err != nil {
		return err
	}
	if _, dup := inj.explicit[k]; dup {
		return errs.Wrapf(errs.ErrDuplicateBinding, "key %s", k)
	}
	if ab, ok := b.(*aliasBinding); ok && ab.targetKey == k {
		return errs.Wrapf(errs.ErrRecursiveBinding, "key %s is bound to itself via ToKey", k)
	}

	inj.explicit[k] = b
	dilog.BindingRegistered(inj.log, k, b.ID(), b.Source())
	if inj.parent != nil {
		// Sibling children of the same parent can be built concurrently
		// (e.g. dihttp's per-request scopes), so this write to the
		// parent's blacklist needs the parent's own lock, not this
		// injector's — putExplicit otherwise only ever touches state
		// private to the injector being built, which is still
		// single-threaded at this point.
		inj.parent.mu.Lock()
		inj.parent.blacklist[k] = struct{}{}
		inj.parent.mu.Unlock()
	}
	return nil
}

// forbiddenKeyTypes holds the container's own API types: Injector, Module,
// Binding, Key, TypeDescriptor (reflect.Type is the Go stand-in — there is
// no separate wrapper type), Provider, and Scope (Scoping is the Go
// spelling). None of these carry meaningful resolvable state of their own,
// so binding one directly is always a configuration mistake rather than a
// real dependency.
var forbiddenKeyTypes = map[reflect.Type]bool{
	reflect.TypeOf(Injector{}):                  true,
	reflect.TypeOf((*Injector)(nil)):            true,
	reflect.TypeOf((*Module)(nil)).Elem():       true,
	reflect.TypeOf((*Binding)(nil)).Elem():      true,
	reflect.TypeOf(key.Key{}):                   true,
	reflect.TypeOf((*reflect.Type)(nil)).Elem(): true,
	reflect.TypeOf((*Provider)(nil)).Elem():     true,
	reflect.TypeOf(Scoping{}):                   true,
}

// checkForbiddenKeyType rejects keys that may never be bound directly: the
// container's own API types carry no information a binding could resolve.
func checkForbiddenKeyType(k key.Key) error {
	if k.Type != nil && forbiddenKeyTypes[k.Type] {
		return errs.Wrapf(errs.ErrForbiddenKeyType, "key %s: the container's own API types cannot be bound", k)
	}
	return nil
}

// createJITBinding implements spec.md §4.3 step 3: constant-to-typed
// conversion, qualifier stripping, then construction inference from the
// raw type. It has no provider-of-X synthesis step (Redesign Flag 3 in
// SPEC_FULL.md).
func (inj *Injector) createJITBinding(k key.Key, es *errorsSource) (Binding, error) {
	if v, ok := inj.lookupConstant(k); ok {
		if converted, convErr := inj.converters.convert(v.strValue, k.Type); convErr != nil {
			return nil, convErr
		} else if converted != nil {
			return newConvertedConstantBinding(k, converted, v.originalKey, v.source), nil
		}
	}

	if !k.Qualifier.IsZero() {
		if b, ok := inj.explicit[key.WithoutQualifier(k)]; ok {
			return b, nil
		}
	}

	return inj.inferConstructorBinding(k, es)
}

type constantLookup struct {
	strValue    string
	originalKey key.Key
	source      errs.Source
}

// lookupConstant finds a bound string constant under k's qualifier,
// regardless of k's own (non-string) requested type, supporting the
// convert-on-JIT path (spec.md §4.3 step 3's second bullet).
func (inj *Injector) lookupConstant(k key.Key) (constantLookup, bool) {
	if k.Type == reflect.TypeOf("") {
		return constantLookup{}, false
	}
	stringKey := key.Key{Type: reflect.TypeOf(""), Qualifier: k.Qualifier}
	b, ok := inj.explicit[stringKey]
	if !ok {
		return constantLookup{}, false
	}
	cb, ok := b.(*constantBinding)
	if !ok {
		return constantLookup{}, false
	}
	s, ok := cb.value.(string)
	if !ok {
		return constantLookup{}, false
	}
	return constantLookup{strValue: s, originalKey: stringKey, source: b.Source()}, true
}
