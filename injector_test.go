package di_test

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	di "github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/key"
)

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
)

// --- Scenario 1: basic resolution ------------------------------------------

type scenService struct {
	Logger string
}

func newScenService(logger string) *scenService {
	return &scenService{Logger: logger}
}

func TestBasicResolution(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		b.Bind(stringType).ToInstance("log")
		di.Bind[*scenService](b).ToConstructor(newScenService)
	}))
	require.NoError(t, err)

	got, err := di.GetInstance[*scenService](inj)
	require.NoError(t, err)
	assert.Equal(t, "log", got.Logger)
}

// --- Scenario 2: duplicate error aggregation -------------------------------

type fooIface interface{ foo() }
type fooA struct{}

func (fooA) foo() {}

type fooB struct{}

func (fooB) foo() {}

func TestDuplicateBindingAggregation(t *testing.T) {
	_, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[fooIface](b).To(key.OfType[fooA]())
		di.Bind[fooIface](b).To(key.OfType[fooB]())
	}))

	require.Error(t, err)
	var ce *di.CreationError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Messages, 1)
	assert.Contains(t, ce.Messages[0].String(), "already configured")
}

// --- Scenario 3: constant conversion ---------------------------------------

type portConsumer struct {
	Port int `inject:"" qualifier:"port"`
}

func TestConstantConversion(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			b.BindConstant().AnnotatedWith("port").To("8080")
		}))
		require.NoError(t, err)

		got, err := inj.GetInstance(key.OfQualifiedValue(intType, "port"))
		require.NoError(t, err)
		assert.Equal(t, 8080, got)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			b.BindConstant().AnnotatedWith("port").To("eighty")
			di.Bind[*portConsumer](b)
		}))
		require.Error(t, err)
	})
}

// --- Scenario 4: singleton identity across goroutines ----------------------

type scenCounter struct{ N int }

var counterConstructions int64

func newScenCounter() *scenCounter {
	atomic.AddInt64(&counterConstructions, 1)
	return &scenCounter{}
}

func TestSingletonIdentityAcrossGoroutines(t *testing.T) {
	atomic.StoreInt64(&counterConstructions, 0)

	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*scenCounter](b).ToConstructor(newScenCounter).In(di.Singleton)
	}))
	require.NoError(t, err)

	const n = 32
	results := make([]*scenCounter, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := di.GetInstance[*scenCounter](inj)
			require.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&counterConstructions))
}

// --- Scenario 5: cycle through an interface succeeds -----------------------
//
// A depends on concrete B; B depends back on A, but only through an
// interface A implements. The edge that closes the cycle (B's dependency)
// is the one requested as an interface, which is what spec.md §4.4.3 step 2
// requires for the cycle to resolve via proxy rather than fail outright: a
// cycle is only resolvable when the back-edge itself is interface-typed,
// not merely when an interface appears somewhere else in the graph.

type ifaceA interface {
	GetB() *cycleB
}

type cycleA struct {
	B *cycleB
}

func (a *cycleA) GetB() *cycleB { return a.B }

type cycleB struct {
	A ifaceA
}

func newCycleA(b *cycleB) *cycleA { return &cycleA{B: b} }
func newCycleB(a ifaceA) *cycleB  { return &cycleB{A: a} }

type ifaceAProxy struct{ delegate ifaceA }

func (p *ifaceAProxy) GetB() *cycleB { return p.delegate.GetB() }

func TestCycleThroughInterfaceSucceeds(t *testing.T) {
	di.RegisterInterfaceProxy(func() (ifaceA, func(ifaceA)) {
		p := &ifaceAProxy{}
		return p, func(d ifaceA) { p.delegate = d }
	})

	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*cycleA](b).ToConstructor(newCycleA)
		di.Bind[ifaceA](b).To(key.OfType[*cycleA]())
		di.Bind[*cycleB](b).ToConstructor(newCycleB)
	}))
	require.NoError(t, err)

	a, err := di.GetInstance[*cycleA](inj)
	require.NoError(t, err)
	require.NotNil(t, a.B)
	require.NotNil(t, a.B.A)
	assert.Same(t, a.B, a.B.A.GetB())
}

// --- Scenario 6: cycle between concrete classes fails -----------------------

type concreteA struct{ B *concreteB }
type concreteB struct{ A *concreteA }

func newConcreteA(b *concreteB) *concreteA { return &concreteA{B: b} }
func newConcreteB(a *concreteA) *concreteB { return &concreteB{A: a} }

func TestCycleBetweenConcreteClassesFails(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*concreteA](b).ToConstructor(newConcreteA)
		di.Bind[*concreteB](b).ToConstructor(newConcreteB)
	}))
	require.NoError(t, err) // the cycle is only detected during construction, not validation

	_, err = di.GetInstance[*concreteA](inj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

// --- Scenario 7: static injection is one-shot -------------------------------

type scenConfig struct {
	Db string `inject:""`
}

var scenConfigTarget = &scenConfig{}

func TestStaticInjectionOneShot(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		b.Bind(stringType).ToInstance("db-conn")
		b.RequestStaticInjection(scenConfigTarget)
	}))
	require.NoError(t, err)

	assert.Equal(t, "db-conn", scenConfigTarget.Db)

	fresh := &scenConfig{}
	require.NoError(t, inj.InjectMembers(fresh))
	assert.Equal(t, "db-conn", fresh.Db)
	// The static target is untouched by injecting a different instance.
	assert.Equal(t, "db-conn", scenConfigTarget.Db)
}

// --- Scenario 8: method injection, including optional skip ------------------

type widget struct{}

type methodTarget struct {
	db     string
	widget *widget
}

func (m *methodTarget) InjectDB(db string) { m.db = db }

func (m *methodTarget) InjectWidgetOptional(w *widget) { m.widget = w }

func newMethodTarget() *methodTarget { return &methodTarget{} }

func TestMethodInjection(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*methodTarget](b).ToConstructor(newMethodTarget)
		b.Bind(stringType).ToInstance("db-conn")
		di.Bind[*widget](b).ToConstructor(func() *widget { return &widget{} })
	}))
	require.NoError(t, err)

	target, err := di.GetInstance[*methodTarget](inj)
	require.NoError(t, err)
	assert.Equal(t, "db-conn", target.db)
	assert.NotNil(t, target.widget)
}

func TestMethodInjection_OptionalSkippedWhenUnsatisfiable(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*methodTarget](b).ToConstructor(newMethodTarget)
		b.Bind(stringType).ToInstance("db-conn")
		// No binding for *widget: InjectWidgetOptional must be skipped
		// entirely rather than called with a nil widget.
	}))
	require.NoError(t, err)

	target, err := di.GetInstance[*methodTarget](inj)
	require.NoError(t, err)
	assert.Equal(t, "db-conn", target.db)
	assert.Nil(t, target.widget)
}

// --- Scenario 9: a type's own declared scope is honored without .In(...) ---

type namedScopeMarker struct{}

type scopedWidget struct {
	namedScopeMarker
}

var scopedWidgetInjections int64

func (w *scopedWidget) InjectMarker() {
	atomic.AddInt64(&scopedWidgetInjections, 1)
}

func TestDeclaredScopeAnnotationCachesLikeASingleton(t *testing.T) {
	atomic.StoreInt64(&scopedWidgetInjections, 0)

	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		b.BindScope(reflect.TypeOf(namedScopeMarker{}), di.NewScope("request"))
	}))
	require.NoError(t, err)

	_, err = di.GetInstance[scopedWidget](inj)
	require.NoError(t, err)
	_, err = di.GetInstance[scopedWidget](inj)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&scopedWidgetInjections),
		"a type embedding a registered scope marker is cached like a singleton, so its method-injection side effect runs only once")
}

// --- Testable properties (spec §8) -----------------------------------------

// propService has a non-zero size so that each allocation gets its own
// address; Go may hand every zero-size allocation the same pointer.
type propService struct{ _ byte }

func newPropService() *propService { return &propService{} }

func TestProperty_Uniqueness(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*propService](b).ToConstructor(newPropService)
	}))
	require.NoError(t, err)

	seen := map[key.Key]bool{}
	for _, b := range inj.GetBindings() {
		assert.False(t, seen[b.Key()], "duplicate key in GetBindings: %s", b.Key())
		seen[b.Key()] = true
	}
}

func TestProperty_IdempotenceOfResolution(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*propService](b).ToConstructor(newPropService)
	}))
	require.NoError(t, err)

	k := key.OfType[*propService]()
	b1, ok1 := inj.GetBinding(k)
	b2, ok2 := inj.GetBinding(k)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Same(t, b1, b2)
}

func TestProperty_NoScopeFreshness(t *testing.T) {
	inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		di.Bind[*propService](b).ToConstructor(newPropService)
	}))
	require.NoError(t, err)

	a, err := di.GetInstance[*propService](inj)
	require.NoError(t, err)
	c, err := di.GetInstance[*propService](inj)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

