// Package key implements the canonical identity for injectable points
// (spec.md §3 "Key", §4.1 "Key & Type Model").
package key

import (
	"fmt"
	"reflect"
)

// Key is the identity of an injectable slot: a fully-parameterized type
// plus an optional Qualifier. Two keys differing only in qualifier are
// distinct and separately hashable.
type Key struct {
	Type      reflect.Type
	Qualifier Qualifier
}

// Of returns the unqualified Key for t.
func Of(t reflect.Type) Key {
	return Key{Type: t}
}

// OfType returns a Key for T with no qualifier.
func OfType[T any]() Key {
	return Key{Type: reflect.TypeFor[T]()}
}

// OfQualifiedType returns a Key for t qualified by the bare annotation type
// qualifierType (spec.md: "a qualifier-annotation type").
func OfQualifiedType(t reflect.Type, qualifierType reflect.Type) Key {
	return Key{Type: t, Qualifier: Qualifier{annotationType: qualifierType}}
}

// OfQualifiedValue returns a Key for t qualified by a specific
// qualifier-annotation instance, value-equal to another instance with equal
// attributes (spec.md: "a specific qualifier-annotation instance").
func OfQualifiedValue(t reflect.Type, qualifierValue any) Key {
	return Key{Type: t, Qualifier: newValueQualifier(qualifierValue)}
}

// RawType returns k's type unchanged. Go monomorphizes generics, so an
// instantiated generic type is already a distinct reflect.Type and there is
// no argument tree to drop (spec.md §4.1 "the raw type is the erasure").
func RawType(k Key) reflect.Type {
	return k.Type
}

// WithoutQualifier returns a copy of k with no qualifier, supporting
// qualifier-attribute stripping during JIT resolution (spec.md §4.3).
func WithoutQualifier(k Key) Key {
	return Key{Type: k.Type}
}

// String renders the key for diagnostics and error-message source trails.
func (k Key) String() string {
	if k.Qualifier.IsZero() {
		return k.Type.String()
	}
	return fmt.Sprintf("%s (qualified by %s)", k.Type, k.Qualifier)
}

// IsSlice reports whether k's type is a slice, the shape used for
// multibindings (spec.md §4.3 slice resolution).
func (k Key) IsSlice() bool {
	return k.Type != nil && k.Type.Kind() == reflect.Slice
}

// Elem returns the Key of k's slice element type, preserving the qualifier.
func (k Key) Elem() Key {
	return Key{Type: k.Type.Elem(), Qualifier: k.Qualifier}
}
