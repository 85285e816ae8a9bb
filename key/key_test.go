package key_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelgraph/injector/key"
)

type primary struct{}

type namedQualifier struct{ Name string }

func TestKey_EqualityByQualifier(t *testing.T) {
	t.Parallel()

	plain := key.OfType[int]()
	typed := key.OfQualifiedType(reflect.TypeOf(0), reflect.TypeOf(primary{}))
	valA := key.OfQualifiedValue(reflect.TypeOf(0), namedQualifier{Name: "a"})
	valA2 := key.OfQualifiedValue(reflect.TypeOf(0), namedQualifier{Name: "a"})
	valB := key.OfQualifiedValue(reflect.TypeOf(0), namedQualifier{Name: "b"})

	assert.NotEqual(t, plain, typed)
	assert.NotEqual(t, plain, valA)
	assert.NotEqual(t, typed, valA)
	assert.Equal(t, valA, valA2, "two qualifier instances with equal attributes compare equal")
	assert.NotEqual(t, valA, valB)

	seen := map[key.Key]bool{plain: true, typed: true, valA: true, valB: true}
	assert.Len(t, seen, 4, "all four keys must be usable as distinct map keys")
}

func TestKey_WithoutQualifier(t *testing.T) {
	t.Parallel()

	qualified := key.OfQualifiedValue(reflect.TypeOf(""), namedQualifier{Name: "x"})
	assert.Equal(t, key.OfType[string](), key.WithoutQualifier(qualified))
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	plain := key.OfType[int]()
	assert.Equal(t, "int", plain.String())

	qualified := key.OfQualifiedValue(reflect.TypeOf(0), namedQualifier{Name: "port"})
	assert.Contains(t, qualified.String(), "qualified by")
}

func TestKey_IsSliceAndElem(t *testing.T) {
	t.Parallel()

	sliceKey := key.OfType[[]string]()
	assert.True(t, sliceKey.IsSlice())
	assert.Equal(t, key.OfType[string](), sliceKey.Elem())

	assert.False(t, key.OfType[string]().IsSlice())
}
