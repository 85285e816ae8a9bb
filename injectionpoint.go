package di

import (
	"reflect"

	"github.com/kestrelgraph/injector/internal/xreflect"
	"github.com/kestrelgraph/injector/key"
	"github.com/puzpuzpuz/xsync/v3"
)

// InjectionPoint is a member-level description of a field or method
// parameter that requires injection (spec.md §3 "InjectionPoint").
type InjectionPoint struct {
	Key        key.Key
	Nullable   bool
	FieldIndex []int // reflect.Value.FieldByIndex path; nil for method params
	Method     *reflect.Method
	ParamIndex int
}

// injectionPointCache holds the computed []InjectionPoint per concrete
// type. It is populated once per type and is safe to race (idempotent
// computation: two goroutines may compute it concurrently and only one
// write wins), so it lives outside the Injector's coarse singleton/JIT
// lock and instead uses a lock-free concurrent map (spec.md §5: "the
// per-class injection-point caches" are distinguished from the coarse
// monitor guarding the singleton/JIT caches).
var injectionPointCache = xsync.NewMapOf[reflect.Type, []InjectionPoint]()

// computeInjectionPoints walks t's fields (superclass-before-subclass is
// Go-irrelevant since Go has no implementation inheritance, but embedded
// structs are walked outer-to-inner to mirror the teacher's declared-order
// semantics) collecting every field tagged for injection (spec.md §4.4.2).
func computeInjectionPoints(t reflect.Type) []InjectionPoint {
	if cached, ok := injectionPointCache.Load(t); ok {
		return cached
	}

	points := collectFieldInjectionPoints(t, nil)
	points = append(points, collectMethodInjectionPoints(reflect.PtrTo(t))...)

	// Store() rather than LoadOrStore(): redundant concurrent computation
	// is cheap and idempotent, so we don't need compare-and-swap semantics
	// here, only eventual convergence on an equivalent slice.
	injectionPointCache.Store(t, points)
	return points
}

func collectFieldInjectionPoints(t reflect.Type, prefix []int) []InjectionPoint {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var points []InjectionPoint
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(append([]int{}, prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			points = append(points, collectFieldInjectionPoints(f.Type, idx)...)
			continue
		}

		present, _ := xreflect.FieldInjectable(f)
		if !present {
			continue
		}

		k := key.Of(f.Type)
		if qualifier, ok := xreflect.FieldQualifier(f); ok {
			k = key.OfQualifiedValue(f.Type, qualifier)
		}

		points = append(points, InjectionPoint{
			Key:        k,
			Nullable:   xreflect.FieldNullable(f),
			FieldIndex: idx,
		})
	}

	return points
}

// collectMethodInjectionPoints walks the exported methods of a pointer
// receiver type looking for the `Inject`-naming convention (spec.md
// §4.4.2's inject-target instance methods; see SPEC_FULL.md §3 "Method-
// level injection points"), emitting one InjectionPoint per parameter in
// declaration order. Go's method-shadowing rule already filters an
// embedded type's promoted method out of ptrType's method set once the
// outer type redeclares the same name, so no separate override pass is
// needed here.
func collectMethodInjectionPoints(ptrType reflect.Type) []InjectionPoint {
	var points []InjectionPoint
	for i := 0; i < ptrType.NumMethod(); i++ {
		m := ptrType.Method(i)
		present, optional := xreflect.MethodInjectable(m.Name)
		if !present {
			continue
		}

		// m.Type.In(0) is the receiver; real parameters start at index 1.
		for p := 1; p < m.Type.NumIn(); p++ {
			points = append(points, InjectionPoint{
				Key:        key.Of(m.Type.In(p)),
				Nullable:   optional,
				Method:     &m,
				ParamIndex: p - 1,
			})
		}
	}
	return points
}

// injectPoints sets each resolved dependency onto its injection point on
// val, which must be addressable, then invokes any inject-target methods
// (spec.md §4.4.3 step 4 "inject fields and methods in collection order").
// A resolved-but-missing optional dependency arrives as an invalid
// reflect.Value (see the nullable branch in constructBinding): for a
// field that zero-fills it; for an optional method it skips the call
// entirely rather than invoking it with zero stand-ins, per spec.md
// §4.4.2's "optional methods that cannot be satisfied are silently
// skipped".
func injectPoints(_ *requestContext, val reflect.Value, points []InjectionPoint, args []reflect.Value) error {
	target := val
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	recv := val
	if recv.Kind() != reflect.Ptr {
		recv = val.Addr()
	}

	for i := 0; i < len(points); {
		p := points[i]

		if p.FieldIndex != nil {
			field := target.FieldByIndex(p.FieldIndex)
			if field.CanSet() {
				field.Set(safeReflectValue(p.Key.Type, args[i]))
			}
			i++
			continue
		}

		j := i
		satisfied := true
		callArgs := make([]reflect.Value, 0, len(points)-i)
		for j < len(points) && points[j].FieldIndex == nil && points[j].Method.Name == p.Method.Name {
			if points[j].Nullable && !args[j].IsValid() {
				satisfied = false
			}
			callArgs = append(callArgs, safeReflectValue(points[j].Key.Type, args[j]))
			j++
		}
		if satisfied {
			if method := recv.MethodByName(p.Method.Name); method.IsValid() {
				method.Call(callArgs)
			}
		}
		i = j
	}

	// Inject-target methods without parameters have no InjectionPoint of
	// their own, so they are called here, after every other point.
	recvType := recv.Type()
	for m := 0; m < recvType.NumMethod(); m++ {
		method := recvType.Method(m)
		if present, _ := xreflect.MethodInjectable(method.Name); present && method.Type.NumIn() == 1 {
			recv.Method(m).Call(nil)
		}
	}

	return nil
}

func safeReflectValue(t reflect.Type, v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	return v
}
