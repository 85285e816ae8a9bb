package key

import (
	"fmt"
	"reflect"
)

// Qualifier distinguishes two bindings of the same type (spec.md §3
// "Qualifier"). It is either the zero value (no qualifier), a bare
// qualifier-annotation *type*, or a qualifier-annotation *instance*.
//
// Qualifier is itself a comparable struct (unlike the raw annotation value
// it may wrap) so that Key can be used directly as a map key without
// risking a runtime panic on an incomparable underlying value (a slice or
// map field on a qualifier struct, say). Instance equality is captured by
// precomputing a canonical encoding of the qualifier's declared attributes
// at construction time, the Go stand-in for Java's annotation-instance
// value-equality contract.
type Qualifier struct {
	annotationType reflect.Type
	valueType      reflect.Type
	encoded        string
}

// IsZero reports whether q carries no qualifier at all.
func (q Qualifier) IsZero() bool {
	return q.annotationType == nil && q.valueType == nil
}

// IsType reports whether q is a bare annotation-type qualifier (as opposed
// to a qualifier instance).
func (q Qualifier) IsType() bool {
	return q.annotationType != nil
}

// String renders the qualifier for diagnostics.
func (q Qualifier) String() string {
	switch {
	case q.IsZero():
		return "<none>"
	case q.IsType():
		return q.annotationType.String()
	default:
		return fmt.Sprintf("%s(%s)", q.valueType, q.encoded)
	}
}

func newValueQualifier(value any) Qualifier {
	if value == nil {
		return Qualifier{}
	}

	return Qualifier{
		valueType: reflect.TypeOf(value),
		encoded:   encodeQualifierValue(value),
	}
}

// encodeQualifierValue produces a canonical string form of a qualifier
// instance's declared (exported) attributes. Two instances with equal
// attributes encode identically, giving DeepEqual-style comparison through
// a comparable string rather than reflect.DeepEqual at every lookup.
func encodeQualifierValue(value any) string {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Sprintf("%#v", value)
	}

	t := v.Type()
	out := t.String() + "{"
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		out += fmt.Sprintf("%s:%#v,", f.Name, v.Field(i).Interface())
	}
	out += "}"
	return out
}
