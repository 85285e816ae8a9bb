// Package xreflect holds the small reflection helpers the construction
// engine needs to read the Go struct-tag convention described in
// SPEC_FULL.md §3 ("Struct-tag convention"): the direct analogue of
// spec.md §6's fixed attribute names (`Inject`, `Nullable`, ...).
package xreflect

import (
	"reflect"
	"strings"
)

// InjectTag is the struct tag key marking a field as an injection point.
const InjectTag = "inject"

// FieldInjectable reports whether a struct field is marked for injection
// and, if so, whether it is optional (spec.md §4.4.2 "Nullability flag"
// analogue: an optional field that can't be satisfied is skipped rather
// than erroring when using method-injection; for fields we surface the
// distinct Nullable flag instead, see FieldNullable).
func FieldInjectable(f reflect.StructField) (present bool, optional bool) {
	tag, ok := f.Tag.Lookup(InjectTag)
	if !ok {
		return false, false
	}
	return true, strings.Contains(tag, "optional")
}

// FieldQualifier returns the raw qualifier tag value for a field, if any.
func FieldQualifier(f reflect.StructField) (string, bool) {
	v, ok := f.Tag.Lookup("qualifier")
	return v, ok
}

// FieldNullable reports whether a field carries a `nullable:"true"` tag, or
// is itself an interface/pointer/slice/map/chan/func type implicitly able to
// hold nil. Matches spec.md §4.4.2's "true iff the field is annotated with
// any annotation whose simple name is literally Nullable", generalized to a
// tag lookup since Go has no annotation namespace to scan.
func FieldNullable(f reflect.StructField) bool {
	if v, ok := f.Tag.Lookup("nullable"); ok {
		return v != "false"
	}

	switch f.Type.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// methodInjectPrefix and methodOptionalSuffix are the naming convention
// method-level injection points use in place of a struct tag, which Go
// methods have no way to carry (SPEC_FULL.md §3 "Method-level injection
// points").
const (
	methodInjectPrefix   = "Inject"
	methodOptionalSuffix = "Optional"
)

// MethodInjectable reports whether an exported method is an inject-target
// by the `Inject`-prefixed naming convention, and whether it is optional
// (an `Optional`-suffixed name, skipped silently rather than invoked with
// zero-valued parameters when one of its arguments can't be resolved).
func MethodInjectable(name string) (present bool, optional bool) {
	if name == methodInjectPrefix || !strings.HasPrefix(name, methodInjectPrefix) {
		return false, false
	}
	return true, strings.HasSuffix(name, methodOptionalSuffix)
}

// ScopeAnnotationType returns the type of a scope marker anonymously
// embedded in t, if any: the Go analogue of a scope annotation on a class
// declaration (SPEC_FULL.md §3 "a type declares its scope by embedding a
// registered marker type"). A marker is an anonymous struct field with no
// fields of its own, distinguishing it from an embedded field used for
// ordinary struct composition (which carries data). Only the first such
// field is considered; a type declares at most one scope.
func ScopeAnnotationType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Type.NumField() == 0 {
			return f.Type, true
		}
	}
	return nil, false
}

// IsInnerType reports whether t looks like a Go analogue of a non-static
// inner class: a struct type declared with an unexported, unexported-type
// "outer" receiver field is not discoverable via reflection in Go, so the
// honest Go analogue of spec.md §4.4.1 step 4 ("Inner classes ... are
// rejected") is a struct embedding a field literally named "outer" or
// "Outer" with no exported way to supply it — this is a narrow, explicit
// convention rather than a language-level concept, and is rare in practice;
// most Go structs are constructible.
func IsInnerType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Name
		if name == "outer" || name == "Outer" {
			return true
		}
	}
	return false
}
