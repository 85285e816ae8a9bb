package di

import (
	"reflect"
	"time"

	"github.com/kestrelgraph/injector/dilog"
	"github.com/kestrelgraph/injector/element"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// newInjector runs the 14-phase build pipeline of spec.md §4.5 over the
// elements produced by running modules, aggregating into one errs.Errors
// and returning a single *CreationError if any phase accumulated one
// (phase 12).
func newInjector(parent *Injector, stage Stage, modules []Module) (*Injector, error) {
	inj := newInjectorShell(parent, stage)
	if parent != nil {
		inj.log = parent.log
	}
	for _, m := range modules {
		if lm, ok := m.(interface{ applyInjector(*Injector) }); ok {
			lm.applyInjector(inj)
		}
	}

	accum := &errs.Errors{}
	es := &errorsSource{errs: accum}

	// Phase 1: install modules.
	binder := newBinder()
	for _, m := range modules {
		binder.Install(m)
	}
	elements := binder.stream.Drain()

	// Phase 2: process messages / user-added errors.
	inj.processMessages(elements, es)

	// Phase 3: process scope declarations.
	inj.processScopes(elements, es)

	// Phase 4: process type converters.
	inj.processConverters(elements)

	// Phase 5: process binding elements (and constants alongside them).
	var pending []*constructorBinding
	inj.runPhase("processBindings", func() {
		pending = inj.processBindings(elements, es)
		inj.processConstants(elements, es)
	})

	// Phase 6: process static-injection requests.
	inj.processStaticInjection(elements)

	// Phase 7: process instance-injection requests.
	inj.processInstanceInjection(elements)

	// Phase 8: process provider-handle requests, eagerly resolved.
	inj.processProviderRequests(elements, es)

	// Phase 9: initialize untargeted/ToConstructor bindings now that every
	// explicit binding exists.
	inj.runPhase("initializeUntargeted", func() { inj.initializeUntargeted(pending, es) })

	// Phase 10: index by raw type.
	inj.buildIndex()

	// Phase 11: validate the dependency graph without invoking
	// constructors.
	inj.runPhase("validate", func() { inj.validate(es) })

	// Phase 12: throw on accumulated errors.
	if ce := errs.NewCreationError(accum); ce != nil {
		dilog.PhaseFailed(inj.log, "build", ce)
		return nil, ce
	}

	// Phase 13: inject — static injection, then the initializer.
	if err := inj.runStaticInjection(); err != nil {
		return nil, err
	}
	if err := inj.init.injectAll(inj); err != nil {
		return nil, err
	}

	// Phase 14: preload.
	if err := inj.preload(); err != nil {
		return nil, err
	}

	return inj, nil
}

// runPhase brackets a build-pipeline phase with dilog diagnostics.
func (inj *Injector) runPhase(name string, fn func()) {
	dilog.PhaseStarted(inj.log, name)
	start := time.Now()
	fn()
	dilog.PhaseCompleted(inj.log, name, time.Since(start))
}

func (inj *Injector) processMessages(elements []element.Element, es *errorsSource) {
	for _, e := range elements {
		switch e.Kind {
		case element.KindMessage:
			p := e.Payload.(element.MessagePayload)
			es.push(e.Source).add("%s", p.Text)
		case element.KindError:
			p := e.Payload.(element.ErrorPayload)
			es.push(e.Source).addCause(p.Err, "%v", p.Err)
		}
	}
}

func (inj *Injector) processScopes(elements []element.Element, es *errorsSource) {
	for _, e := range elements {
		if e.Kind != element.KindScope {
			continue
		}
		p := e.Payload.(element.ScopePayload)
		scoping, ok := p.Scope.(Scoping)
		if !ok {
			es.push(e.Source).add("BindScope: value is not a di.Scoping")
			continue
		}
		inj.scopes.register(p.AnnotationType, scoping)
	}
}

func (inj *Injector) processConverters(elements []element.Element) {
	for _, e := range elements {
		if e.Kind != element.KindConverter {
			continue
		}
		p := e.Payload.(element.ConverterPayload)
		inj.converters.register(TypeConverter{
			Matches: p.Matches,
			Convert: func(value string, _ reflect.Type) (any, error) { return p.Convert(value) },
		})
	}
}

// processBindings handles phase 5's Binding<T> elements. Untargeted and
// ToConstructor bindings are recorded immediately in the Uninitialized
// state and returned for phase 9 to finish (spec.md §4.4.7).
func (inj *Injector) processBindings(elements []element.Element, es *errorsSource) []*constructorBinding {
	var pending []*constructorBinding

	for _, e := range elements {
		if e.Kind != element.KindBinding {
			continue
		}
		p := e.Payload.(*element.BindingPayload)
		scoping, _ := p.Scoping.(Scoping)

		var b Binding
		var err error

		switch p.TargetKind {
		case element.TargetInstance:
			b = newInstanceBinding(p.Key, p.Target, e.Source)
			if v := reflect.ValueOf(p.Target); v.Kind() == reflect.Ptr && !v.IsNil() {
				inj.init.register(p.Target)
			}

		case element.TargetProviderInstance:
			provider, ok := p.Target.(Provider)
			if !ok {
				es.push(e.Source).add("ToProviderInstance: value for key %s does not implement di.Provider", p.Key)
				continue
			}
			b = newProviderInstanceBinding(p.Key, provider, scoping, e.Source)
			if v := reflect.ValueOf(provider); v.Kind() == reflect.Ptr && !v.IsNil() {
				inj.init.register(provider)
			}

		case element.TargetProviderKey:
			providerKey, ok := p.Target.(key.Key)
			if !ok {
				es.push(e.Source).add("ToProviderKey: target for key %s is not a key.Key", p.Key)
				continue
			}
			b = newProviderKeyBinding(p.Key, providerKey, scoping, e.Source)

		case element.TargetKey:
			targetKey, ok := p.Target.(key.Key)
			if !ok {
				es.push(e.Source).add("To: target for key %s is not a key.Key", p.Key)
				continue
			}
			b = newAliasBinding(p.Key, targetKey, e.Source)

		case element.TargetUntargeted:
			cb := &constructorBinding{bindingBase: newBindingBase(p.Key, e.Source, scoping, statusUninitialized)}
			b = cb
			pending = append(pending, cb)

		case element.TargetConstructor:
			ctorVal := reflect.ValueOf(p.Target)
			cb := &constructorBinding{
				bindingBase: newBindingBase(p.Key, e.Source, scoping, statusUninitialized),
				pendingCtor: ctorVal,
			}
			b = cb
			pending = append(pending, cb)
		}

		if b == nil {
			continue
		}
		if base, ok := b.(interface{ setEager(bool) }); ok {
			base.setEager(p.Eager)
		}
		if err = inj.putExplicit(b); err != nil {
			es.push(e.Source).addCause(err, "binding key %s", p.Key)
		}
	}

	return pending
}

func (inj *Injector) processConstants(elements []element.Element, es *errorsSource) {
	for _, e := range elements {
		if e.Kind != element.KindConstant {
			continue
		}
		p := e.Payload.(element.ConstantPayload)
		b := newConstantBinding(p.Key, p.Value, e.Source)
		if err := inj.putExplicit(b); err != nil {
			es.push(e.Source).addCause(err, "binding constant key %s", p.Key)
		}
	}
}

func (inj *Injector) processStaticInjection(elements []element.Element) {
	for _, e := range elements {
		if e.Kind != element.KindStaticInjection {
			continue
		}
		p := e.Payload.(element.StaticInjectionPayload)
		inj.staticTargets = append(inj.staticTargets, p.Target)
	}
}

func (inj *Injector) processInstanceInjection(elements []element.Element) {
	for _, e := range elements {
		if e.Kind != element.KindInstanceInjection {
			continue
		}
		p := e.Payload.(element.InstanceInjectionPayload)
		inj.init.register(p.Instance)
	}
}

func (inj *Injector) processProviderRequests(elements []element.Element, es *errorsSource) {
	for _, e := range elements {
		if e.Kind != element.KindGetProvider {
			continue
		}
		p := e.Payload.(element.GetProviderPayload)
		if handle, ok := p.Handle.(*ProviderHandle); ok {
			handle.injector = inj
		}
		if _, err := inj.getBindingOrFail(p.Key, es.push(e.Source)); err != nil {
			es.push(e.Source).addCause(err, "getProvider(%s)", p.Key)
		}
	}
}

// initializeUntargeted finishes phase 5's stubs: locate a constructor
// (either the one supplied via ToConstructor, or the zero-value fallback
// for Untargeted) and compute injection points (spec.md §4.5 step 9).
func (inj *Injector) initializeUntargeted(pending []*constructorBinding, es *errorsSource) {
	for _, b := range pending {
		ctor := b.pendingCtor
		var err error
		if !ctor.IsValid() {
			ctor, err = zeroValueConstructor(derefStruct(b.key.Type))
			if err != nil {
				b.markInvalid(err)
				es.push(b.source).addCause(err, "initializing binding for key %s", b.key)
				continue
			}
			if ptrType := b.key.Type; ptrType.Kind() == reflect.Ptr {
				// An untargeted *T key yields a fresh *T rather than a T.
				ctor = reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{ptrType}, false),
					func(_ []reflect.Value) []reflect.Value { return []reflect.Value{reflect.New(ptrType.Elem())} })
			}
		}

		targetType := b.key.Type
		if ctor.Kind() == reflect.Func && ctor.Type().NumOut() > 0 {
			targetType = ctor.Type().Out(0)
		}
		scoping := inj.resolveDeclaredScope(b.scoping, targetType)

		finalized, ferr := newConstructorBinding(b.key, ctor, scoping, b.source)
		if ferr != nil {
			b.markInvalid(ferr)
			es.push(b.source).addCause(ferr, "initializing binding for key %s", b.key)
			continue
		}

		b.typ = finalized.typ
		b.ctor = finalized.ctor
		b.deps = finalized.deps
		b.points = finalized.points
		b.setStatus(statusActive)
	}
}

func (inj *Injector) buildIndex() {
	for _, b := range inj.explicit {
		raw := key.RawType(b.Key())
		inj.byRawType[raw] = append(inj.byRawType[raw], b)
	}
}

// validate walks every explicit binding's dependency graph without
// invoking a single constructor, verifying each dependency resolves
// (spec.md §4.5 step 11).
func (inj *Injector) validate(es *errorsSource) {
	for _, b := range inj.explicit {
		if b.status() == statusInvalid {
			es.push(b.Source()).addCause(b.invalidErr(), "binding for key %s is invalid", b.Key())
			continue
		}
		inj.validateDeps(b, es, make(map[key.Key]bool))
	}

	for _, target := range inj.staticTargets {
		if target == nil {
			es.add("RequestStaticInjection: nil target")
			continue
		}
		v := reflect.ValueOf(target)
		if v.Kind() != reflect.Ptr || v.IsNil() {
			es.add("RequestStaticInjection: target %T must be a non-nil pointer", target)
		}
	}
}

func (inj *Injector) validateDeps(b Binding, es *errorsSource, visiting map[key.Key]bool) {
	k := b.Key()
	if visiting[k] {
		return // a cycle is a construction-time concern (spec.md §4.4.3), not a validation failure
	}
	visiting[k] = true
	defer delete(visiting, k)

	trailed := es.push(errs.StringSource("validating " + k.String()))
	cb, isCtor := b.(*constructorBinding)
	for i, dk := range b.Dependencies() {
		depBinding, err := inj.getBindingOrFail(dk, trailed)
		if err != nil {
			// constructBinding tolerates an unresolvable dependency at a
			// nullable injection point, so validation does too.
			if isCtor && i >= len(cb.deps) && cb.points[i-len(cb.deps)].Nullable {
				continue
			}
			trailed.addCause(err, "unresolved dependency %s of key %s", dk, k)
			continue
		}
		inj.validateDeps(depBinding, trailed, visiting)
	}
}

func (inj *Injector) runStaticInjection() error {
	rc := newRequestContext(inj)
	var agg errs.MultiError
	for _, target := range inj.staticTargets {
		if err := inj.injectMembers(rc, target); err != nil {
			agg = agg.Append(err)
		}
	}
	return agg.Join()
}

// preload implements spec.md §4.5 step 14: Production constructs every
// singleton eagerly; Development only those marked eager via
// AsEagerSingleton(); Tool preloads nothing, so configuration-only tools
// can validate a graph without running a constructor.
func (inj *Injector) preload() error {
	if inj.stage == Tool {
		return nil
	}

	var agg errs.MultiError
	for _, b := range inj.explicit {
		if b.status() == statusInvalid || !b.Scoping().cached() {
			continue
		}
		if inj.stage != Production && !b.Eager() {
			continue
		}
		if _, err := inj.getInstance(b.Key()); err != nil {
			agg = agg.Append(err)
		}
	}
	return agg.Join()
}
