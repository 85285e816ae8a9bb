package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverterRegistry_Builtins(t *testing.T) {
	r := newConverterRegistry()

	out, err := r.convert("42", reflect.TypeOf(0))
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	out, err = r.convert("3.5", reflect.TypeOf(float64(0)))
	require.NoError(t, err)
	assert.Equal(t, 3.5, out)

	out, err = r.convert("true", reflect.TypeOf(false))
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = r.convert("hello", reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestConverterRegistry_NoMatch(t *testing.T) {
	r := newConverterRegistry()

	out, err := r.convert("whatever", reflect.TypeOf(struct{ X int }{}))
	require.NoError(t, err)
	assert.Nil(t, out, "no converter matches a plain struct, so convert reports 'not convertible' rather than an error")
}

func TestConverterRegistry_Ambiguous(t *testing.T) {
	r := newConverterRegistry()
	r.register(TypeConverter{
		Matches: func(t reflect.Type) bool { return t.Kind() == reflect.Int },
		Convert: func(value string, t reflect.Type) (any, error) { return 0, nil },
	})

	_, err := r.convert("1", reflect.TypeOf(0))
	assert.ErrorContains(t, err, "more than one type converter")
}

func TestConverterRegistry_ConverterReturnsNil(t *testing.T) {
	r := newConverterRegistry()
	r.converters = nil // drop builtins so only our converter matches
	r.register(TypeConverter{
		Matches: func(t reflect.Type) bool { return true },
		Convert: func(value string, t reflect.Type) (any, error) { return nil, nil },
	})

	_, err := r.convert("x", reflect.TypeOf(0))
	assert.Error(t, err)
}
