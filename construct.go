package di

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelgraph/injector/dilog"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/internal/xreflect"
	"github.com/kestrelgraph/injector/key"
)

// getInstance is the public entry point for producing a value for k: it
// allocates the per-call requestContext (the Go stand-in for spec.md §5's
// thread-local InternalContext, see context.go) and resolves through it.
func (inj *Injector) getInstance(k key.Key) (any, error) {
	requestID := uuid.New()
	dilog.ProvisionStarted(inj.log, requestID, k)
	start := time.Now()

	rc := newRequestContext(inj)
	es := &errorsSource{errs: &errs.Errors{}}
	v, err := inj.resolve(rc, es, k)
	if err != nil {
		err = errs.Augment(err, errs.StringSource(k.String()))
		dilog.ProvisionFailed(inj.log, requestID, k, err)
		return nil, err
	}
	dilog.ProvisionCompleted(inj.log, requestID, k, time.Since(start))
	return valueOf(v), nil
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// resolve looks up k's binding and runs it through scoping, memoizing
// singleton/named-scope results under the coarse per-injector lock (spec.md
// §4.4.4, §5).
func (inj *Injector) resolve(rc *requestContext, es *errorsSource, k key.Key) (reflect.Value, error) {
	if k.Type != nil && k.Type.Kind() == reflect.Interface {
		if v, handled, err := inj.resolveInterfaceCycle(rc, k); handled {
			return v, err
		}
	}

	b, err := inj.getBindingOrFail(k, es)
	if err != nil {
		return reflect.Value{}, err
	}

	if b.status() == statusInvalid {
		return reflect.Value{}, b.invalidErr()
	}

	if !b.Scoping().cached() {
		v, err := inj.constructBinding(rc, es, b)
		if err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	}

	return inj.resolveScoped(rc, es, b)
}

// resolveScoped implements spec.md §4.4.4's "SINGLETON.get blocks while
// another thread constructs the same singleton": a double-checked lookup
// under the single shared Injector.mu, the one coarse monitor guarding
// every scoped binding, not a lock per binding. That is what prevents the
// lock-order-inversion deadlock spec.md §5 calls out for two mutually
// dependent singletons built from two different goroutines: only one
// goroutine in the whole injector is ever inside a scoped construction at a
// time.
func (inj *Injector) resolveScoped(rc *requestContext, es *errorsSource, b Binding) (reflect.Value, error) {
	k := b.Key()

	inj.mu.Lock()
	cell, ok := inj.singletonCache[k]
	if !ok {
		cell = &singletonCell{}
		inj.singletonCache[k] = cell
	}
	if cell.done {
		inj.mu.Unlock()
		if cell.err != nil {
			return reflect.Value{}, cell.err
		}
		return reflect.ValueOf(cell.value), nil
	}

	v, err := inj.constructBinding(rc, es, b)

	cell.done = true
	if err != nil {
		cell.err = err
	} else {
		cell.value = valueOf(v)
	}
	inj.mu.Unlock()

	if err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// constructBinding runs the construction algorithm of spec.md §4.4.3.
func (inj *Injector) constructBinding(rc *requestContext, es *errorsSource, b Binding) (reflect.Value, error) {
	k := b.Key()
	cs := rc.stateFor(k)

	if cs.constructing {
		if k.Type != nil && k.Type.Kind() == reflect.Interface {
			return inj.proxyFor(k, cs)
		}
		return reflect.Value{}, errs.Wrapf(errs.ErrCycleConcrete, "key %s", k)
	}

	if cs.hasCurrent {
		return cs.current, nil
	}

	cs.constructing = true
	defer func() { cs.constructing = false }()

	deps := b.Dependencies()
	args := make([]reflect.Value, len(deps))
	for i, dk := range deps {
		cb, isCtor := b.(*constructorBinding)
		nullable := isCtor && i >= len(cb.deps) && cb.points[i-len(cb.deps)].Nullable

		depEs := es.push(errs.StringSource("dependency " + dk.String() + " of " + k.String()))
		v, err := inj.resolve(rc, depEs, dk)
		if err != nil {
			if nullable {
				// Left invalid rather than reflect.Zero(dk.Type): injectPoints
				// tells a genuinely-resolved zero value apart from "couldn't
				// resolve this at all", which an optional method injection
				// point needs in order to skip its call instead of invoking it
				// with zero stand-ins.
				args[i] = reflect.Value{}
				continue
			}
			return reflect.Value{}, errs.Augment(err, errs.StringSource(k.String()))
		}
		if !nullable && isNilValue(v) {
			return reflect.Value{}, errs.Wrapf(errs.ErrNullNotAllowed, "dependency %s of key %s", dk, k)
		}
		args[i] = coerceArg(dk.Type, v)
	}

	dilog.Constructing(inj.log, k, b.ID())
	raw, err := b.New(rc, args)
	if err != nil {
		b.markInvalid(err)
		return reflect.Value{}, err
	}

	result := reflect.ValueOf(raw)
	cs.current = result
	cs.hasCurrent = true

	for _, fill := range cs.pendingProxies {
		fill(result)
	}
	cs.pendingProxies = nil

	return result, nil
}

// isNilValue reports whether a successfully resolved dependency value is
// nonetheless nil-ish (a nil pointer, interface, map, slice, chan, or func),
// the case spec.md §7 calls out as "null returned to non-nullable injection
// point" — distinct from resolution failure, which is reported as whatever
// error the failed binding produced.
func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func coerceArg(t reflect.Type, v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	if v.Type() == t {
		return v
	}
	if v.Type().ConvertibleTo(t) {
		return v.Convert(t)
	}
	return v
}

// resolveInterfaceCycle implements the half of spec.md §4.4.3 step 2 that
// constructBinding's own cs.constructing check can't see: a cycle is only
// resolvable if the edge that closes it back onto an already-constructing
// binding is itself requested as an interface type. That edge is k here,
// not whatever concrete key k eventually aliases to, so the check has to
// happen before following the alias chain - by the time construction
// re-enters the concrete binding, the fact that it got there through an
// interface-typed dependency has already been lost. handled is false when
// there's no live cycle to break (including "k isn't an alias at all"), so
// the caller falls through to ordinary resolution.
func (inj *Injector) resolveInterfaceCycle(rc *requestContext, k key.Key) (v reflect.Value, handled bool, err error) {
	target, ok := inj.resolveAliasTarget(k)
	if !ok {
		return reflect.Value{}, false, nil
	}
	cs, exists := rc.peek(target)
	if !exists || !cs.constructing {
		return reflect.Value{}, false, nil
	}
	v, err = inj.proxyFor(k, cs)
	return v, true, err
}

// resolveAliasTarget follows a chain of aliasBindings from k without
// constructing anything, returning the final non-alias key. ok is false if
// k has no explicit/JIT binding yet, or that binding isn't an alias at all
// (k's own key is never interesting to check here: the interface check
// only matters for the key actually requested at the dependency edge).
func (inj *Injector) resolveAliasTarget(k key.Key) (key.Key, bool) {
	seen := map[key.Key]bool{}
	cur := k
	followed := false
	for {
		if seen[cur] {
			return key.Key{}, false
		}
		seen[cur] = true

		b, ok := inj.explicit[cur]
		if !ok {
			inj.mu.Lock()
			b, ok = inj.jit[cur]
			inj.mu.Unlock()
		}
		if !ok {
			return key.Key{}, false
		}
		ab, ok := b.(*aliasBinding)
		if !ok {
			return cur, followed
		}
		cur = ab.targetKey
		followed = true
	}
}

// proxyFor returns a forwarding proxy for an interface key caught in a
// cycle, registering a backfill closure for when the real value completes
// construction (spec.md §4.4.3 step 2, Redesign Flag #1 in SPEC_FULL.md:
// Go cannot synthesize an arbitrary interface implementation at runtime, so
// the forwarder must be pre-registered via RegisterInterfaceProxy[T]).
func (inj *Injector) proxyFor(k key.Key, cs *constructionState) (reflect.Value, error) {
	factory, ok := lookupInterfaceProxy(k.Type)
	if !ok {
		return reflect.Value{}, errs.Wrapf(errs.ErrUnrecoverableCycle, "key %s", k)
	}

	proxy, setDelegate := factory()
	cs.pendingProxies = append(cs.pendingProxies, func(real reflect.Value) {
		setDelegate(real.Interface())
	})

	return reflect.ValueOf(proxy), nil
}

// --- Construction inference (spec.md §4.4.1, "JIT bind type to itself") ---
//
// spec.md §4.4.1 steps 2-3 resolve ImplementedBy/ProvidedBy type attributes
// as implicit aliases. Go has no attribute/annotation facility on type
// declarations, so there is nothing to discover by reflecting on T alone;
// the equivalent is simply an explicit alias binding (Bind(t).To(implKey)
// or Bind(t).ToProviderKey(factoryKey)), which this resolver already
// handles as an ordinary explicit binding before JIT inference is ever
// reached. Construction inference here therefore covers only step 4
// onward: locate a constructor for the concrete type and compute its
// injection points.
func (inj *Injector) inferConstructorBinding(k key.Key, es *errorsSource) (Binding, error) {
	t := k.Type
	if t == nil {
		return nil, errs.Errorf("nil key type")
	}

	if t.Kind() == reflect.Array || (t.Kind() == reflect.Slice && isEnumLike(t)) {
		return nil, errs.Wrapf(errs.ErrArrayOrEnumNotBindable, "key %s", k)
	}
	if t.Kind() == reflect.Interface {
		return nil, errs.Wrapf(errs.ErrMissingImplementation, "key %s is an interface with no bound implementation", k)
	}
	if xreflect.IsInnerType(t) {
		return nil, errs.Wrapf(errs.ErrInnerClass, "key %s", k)
	}

	ctor, ctorErr := zeroValueConstructor(t)
	if ctorErr != nil {
		return nil, errs.Wrapf(ctorErr, "key %s", k)
	}

	scoping := inj.resolveDeclaredScope(NoScope, t)
	return newConstructorBinding(k, ctor, scoping, es.currentSource())
}

// resolveDeclaredScope applies a scope annotation on the type's own
// declaration when nothing more specific already pinned a scope (an
// explicit `.In(scope)` call always wins).
// A type opts in by embedding the scope's registered marker type anonymously
// (see xreflect.ScopeAnnotationType); a type with no such marker, or one
// naming an annotation type nobody registered via BindScope, is unaffected.
func (inj *Injector) resolveDeclaredScope(scoping Scoping, t reflect.Type) Scoping {
	if scoping != NoScope {
		return scoping
	}
	annType, ok := xreflect.ScopeAnnotationType(derefStruct(t))
	if !ok {
		return scoping
	}
	if s, ok := inj.scopes.lookup(annType); ok {
		return s
	}
	return scoping
}

// newConstructorBinding builds a constructorBinding around an already-
// chosen constructor function, computing its dependency keys and the
// target type's field injection points (spec.md §4.4.1 step 7). Shared by
// JIT inference above and by the build pipeline's phase 9 processing of
// Untargeted and explicit ToConstructor bindings (phases.go).
func newConstructorBinding(k key.Key, ctor reflect.Value, scoping Scoping, src errs.Source) (*constructorBinding, error) {
	ctorType := ctor.Type()
	if ctorType.Kind() != reflect.Func {
		return nil, errs.Errorf("key %s: constructor must be a function, got %s", k, ctorType)
	}
	switch ctorType.NumOut() {
	case 1:
	case 2:
		if !ctorType.Out(1).Implements(errorType) {
			return nil, errs.Errorf("key %s: constructor's second return value must be error", k)
		}
	default:
		return nil, errs.Errorf("key %s: constructor must return (T) or (T, error)", k)
	}

	targetType := ctorType.Out(0)
	b := &constructorBinding{
		bindingBase: newBindingBase(k, src, scoping, statusInitialized),
		typ:         targetType,
		ctor:        ctor,
		deps:        constructorDependencyKeys(ctorType),
		points:      computeInjectionPoints(derefStruct(targetType)),
	}
	b.setStatus(statusActive)
	return b, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func derefStruct(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func isEnumLike(t reflect.Type) bool {
	// Go has no native enum kind; the teacher's idiom (and the rest of the
	// pack) represents enums as a named integer type with a String()
	// method. A slice only trips the array-or-enum rejection if its
	// element type looks like one; plain slices (multibindings) are not
	// rejected.
	elem := t.Elem()
	if elem.Kind() < reflect.Int || elem.Kind() > reflect.Uint64 {
		return false
	}
	_, hasString := elem.MethodByName("String")
	return hasString
}

// zeroValueConstructor implements the "else: the zero-argument constructor
// must exist" fallback of spec.md §4.4.1 step 6. A type with dependencies
// reaches construction only through an explicit Bind(t).ToConstructor(fn)
// binding (see module.go); falling all the way through to JIT inference
// means nothing claimed a constructor for it, so the only remaining
// possibility is a struct whose zero value is meaningful on its own (its
// fields, if any, are then populated purely by field injection).
func zeroValueConstructor(t reflect.Type) (reflect.Value, error) {
	if t.Kind() != reflect.Struct {
		return reflect.Value{}, errs.Errorf("type %s is not a struct; bind it explicitly with ToConstructor", t)
	}
	return reflect.MakeFunc(
		reflect.FuncOf(nil, []reflect.Type{t}, false),
		func(_ []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.New(t).Elem()}
		},
	), nil
}

func constructorDependencyKeys(ctorType reflect.Type) []key.Key {
	keys := make([]key.Key, 0, ctorType.NumIn())
	for i := 0; i < ctorType.NumIn(); i++ {
		keys = append(keys, key.Of(ctorType.In(i)))
	}
	return keys
}

// injectMembers populates obj's injection points in place (spec.md §4.4.5,
// and the InjectionPoint computation of §4.4.2 applied to an already-
// existing instance rather than one under construction).
func (inj *Injector) injectMembers(rc *requestContext, obj any) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errs.Errorf("InjectMembers requires a non-nil pointer, got %T", obj)
	}

	t := v.Elem().Type()
	points := computeInjectionPoints(t)
	if len(points) == 0 {
		return nil
	}

	es := &errorsSource{errs: &errs.Errors{}}
	args := make([]reflect.Value, len(points))
	for i, p := range points {
		val, err := inj.resolve(rc, es, p.Key)
		if err != nil {
			if p.Nullable {
				args[i] = reflect.Value{}
				continue
			}
			return errs.Augment(err, errs.StringSource("member injection of "+t.String()))
		}
		if !p.Nullable && isNilValue(val) {
			return errs.Wrapf(errs.ErrNullNotAllowed, "field %s of %s", p.Key, t)
		}
		args[i] = coerceArg(p.Key.Type, val)
	}

	return injectPoints(rc, v, points, args)
}

func (es *errorsSource) currentSource() errs.Source {
	if len(es.trail) == 0 {
		return errs.StringSource("jit")
	}
	return es.trail[len(es.trail)-1]
}
