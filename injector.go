// Package di implements a reflection-based dependency injection container:
// a key/binding model, a just-in-time resolver, a cycle-aware construction
// engine, and a multi-phase build pipeline that aggregates configuration
// errors instead of failing on the first one.
package di

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/kestrelgraph/injector/dilog"
	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// Stage controls how eagerly singletons are constructed at build end
// (spec.md §4.5 step 14) and, for Tool, suppresses preloading entirely so
// configuration-only tools (cmd/injectorcheck) can validate a graph without
// running any constructor.
type Stage int

const (
	Development Stage = iota
	Production
	Tool
)

func (s Stage) String() string {
	switch s {
	case Production:
		return "Production"
	case Tool:
		return "Tool"
	default:
		return "Development"
	}
}

// Injector owns one binding store, scope registry, converter registry, and
// per-class injection-point cache, for its lifetime (spec.md §3
// "Lifecycle"). It is safe for concurrent GetInstance calls after Build
// returns; configuration only ever happens single-threaded during Build.
type Injector struct {
	parent *Injector
	stage  Stage

	// mu is the coarse per-injector lock guarding the JIT binding cache and
	// the singleton value cache (spec.md §5). A single shared lock, rather
	// than one lock per binding, is what rules out the lock-order-inversion
	// deadlock between two mutually dependent singletons built concurrently
	// from two different goroutines.
	mu             sync.Mutex
	explicit       map[key.Key]Binding
	jit            map[key.Key]Binding
	blacklist      map[key.Key]struct{}
	singletonCache map[key.Key]*singletonCell

	scopes     *scopeRegistry
	converters *converterRegistry
	init       *initializer

	byRawType map[reflect.Type][]Binding

	staticTargets []any

	closed bool

	// log receives structured diagnostics for every build phase and
	// provision call (dilog). It defaults to a Nop logger so the cost of
	// every call site is a no-op method dispatch until a caller opts in
	// via WithLogger.
	log *zap.Logger
}

// WithLogger returns a Module that attaches l to the Injector being built,
// so build-phase and provision diagnostics (dilog) are emitted through it
// instead of discarded. It carries no bindings of its own; pass it
// alongside your other modules to di.New/NewChild.
func WithLogger(l *zap.Logger) Module {
	return loggerModule{logger: l}
}

type loggerModule struct{ logger *zap.Logger }

func (m loggerModule) Configure(*Binder) {}
func (m loggerModule) applyInjector(inj *Injector) {
	if m.logger != nil {
		inj.log = m.logger
	}
}

type singletonCell struct {
	done  bool
	value any
	err   error
}

func newInjectorShell(parent *Injector, stage Stage) *Injector {
	return &Injector{
		parent:         parent,
		stage:          stage,
		explicit:       make(map[key.Key]Binding),
		jit:            make(map[key.Key]Binding),
		blacklist:      make(map[key.Key]struct{}),
		singletonCache: make(map[key.Key]*singletonCell),
		scopes:         newScopeRegistry(),
		converters:     newConverterRegistry(),
		init:           newInitializer(),
		byRawType:      make(map[reflect.Type][]Binding),
		log:            dilog.Nop(),
	}
}

// New runs every module against a fresh Binder and builds an Injector from
// the resulting element stream (spec.md §4.5, the 14-phase pipeline).
func New(stage Stage, modules ...Module) (*Injector, error) {
	return newInjector(nil, stage, modules)
}

// NewChild builds a child Injector, layering its bindings over the
// receiver's. A scoped binding visible in the parent is adopted as a
// read-through binding (spec.md §4.3 step 1); once the child explicitly
// binds a key, the parent is blacklisted from ever JIT-creating it (spec.md
// §4.3 "Blacklisting").
func (inj *Injector) NewChild(modules ...Module) (*Injector, error) {
	return newInjector(inj, inj.stage, modules)
}

// GetBinding returns the explicit or previously memoized JIT binding for k,
// without creating a new one.
func (inj *Injector) GetBinding(k key.Key) (Binding, bool) {
	if b, ok := inj.explicit[k]; ok {
		return b, true
	}
	inj.mu.Lock()
	defer inj.mu.Unlock()
	b, ok := inj.jit[k]
	return b, ok
}

// GetBindings returns every explicit binding known to this injector.
func (inj *Injector) GetBindings() []Binding {
	out := make([]Binding, 0, len(inj.explicit))
	for _, b := range inj.explicit {
		out = append(out, b)
	}
	return out
}

// FindBindingsByType returns every explicit binding whose key's raw type
// is t (spec.md §6 "findBindingsByType(type)"). The index is built once
// during Build, so JIT bindings are not included.
func (inj *Injector) FindBindingsByType(t reflect.Type) []Binding {
	return inj.byRawType[t]
}

// GetProvider returns a lazy handle over k, usable any time after Build
// (spec.md §6 "getProvider(key)").
func (inj *Injector) GetProvider(k key.Key) *ProviderHandle {
	return &ProviderHandle{injector: inj, key: k}
}

// GetInstance resolves T from inj, the generic counterpart to Bind[T]/
// BindQualified[T] for call sites that know the type at compile time.
func GetInstance[T any](inj *Injector) (T, error) {
	var zero T
	v, err := inj.GetInstance(key.OfType[T]())
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errs.Errorf("GetInstance: value for key %s is not a %T", key.OfType[T](), zero)
	}
	return t, nil
}

// GetInstance resolves and, if needed, constructs the value for k.
func (inj *Injector) GetInstance(k key.Key) (any, error) {
	if inj.isClosed() {
		return nil, errs.Wrapf(errs.ErrInjectorClosed, "key %s", k)
	}
	return inj.getInstance(k)
}

// InjectMembers injects obj's fields in place, per spec.md §4.4.5's
// ensureInjected semantics for instances not already tracked by the
// initializer.
func (inj *Injector) InjectMembers(obj any) error {
	if inj.isClosed() {
		return errs.ErrInjectorClosed
	}
	rc := newRequestContext(inj)
	return inj.injectMembers(rc, obj)
}

// Close marks a request-scoped child Injector (spec.md §3 "Lifecycle") as no
// longer usable; GetInstance/InjectMembers/ProviderHandle.Get all start
// failing with ErrInjectorClosed. It does not dispose of any constructed
// instance: spec.md §3 is explicit that "the container does not manage
// their lifecycle beyond member-injecting them once", so there are no
// teardown hooks to run here. This exists so dihttp's per-request scope can
// signal "the request is over" the same way the teacher's Container.Close
// does, without pretending Go has a disposal contract the spec never
// defines. ctx is accepted for that call-shape parity; it is not consulted.
func (inj *Injector) Close(_ context.Context) error {
	inj.mu.Lock()
	inj.closed = true
	inj.mu.Unlock()
	return nil
}

func (inj *Injector) isClosed() bool {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	return inj.closed
}

// ProviderHandle is the factory handle returned by GetProvider/getProvider
// (spec.md §6 "getProvider(key) returning a factory handle"); calling Get
// resolves the key, constructing on first use per the key's scope.
type ProviderHandle struct {
	injector *Injector
	key      key.Key
}

func (p *ProviderHandle) Get() (any, error) {
	return p.injector.GetInstance(p.key)
}

// errorsSource adapts a *errs.Errors accumulator plus a current trail into
// the small surface construct.go/resolver.go need for attributing failures.
type errorsSource struct {
	errs  *errs.Errors
	trail []errs.Source
}

func (es *errorsSource) push(src errs.Source) *errorsSource {
	trail := make([]errs.Source, 0, len(es.trail)+1)
	trail = append(trail, es.trail...)
	trail = append(trail, src)
	return &errorsSource{errs: es.errs, trail: trail}
}

func (es *errorsSource) add(format string, args ...any) {
	es.errs.Add(es.trail, format, args...)
}

func (es *errorsSource) addCause(cause error, format string, args ...any) {
	es.errs.AddCause(es.trail, cause, format, args...)
}
