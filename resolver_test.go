package di_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	di "github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/key"
)

func TestForbiddenKeyTypes(t *testing.T) {
	cases := []struct {
		name string
		typ  reflect.Type
	}{
		{"Injector", reflect.TypeOf(di.Injector{})},
		{"*Injector", reflect.TypeOf((*di.Injector)(nil))},
		{"Module", reflect.TypeOf((*di.Module)(nil)).Elem()},
		{"Binding", reflect.TypeOf((*di.Binding)(nil)).Elem()},
		{"Key", reflect.TypeOf(key.Key{})},
		{"TypeDescriptor (reflect.Type)", reflect.TypeOf((*reflect.Type)(nil)).Elem()},
		{"Provider", reflect.TypeOf((*di.Provider)(nil)).Elem()},
		{"Scope", reflect.TypeOf(di.Scoping{})},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
				b.Bind(c.typ)
			}))
			require.Error(t, err)
			assert.ErrorIs(t, err, di.ErrForbiddenKeyType)
		})
	}
}

func TestForbiddenKeyTypes_OrdinaryTypeStillBinds(t *testing.T) {
	_, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
		b.Bind(reflect.TypeOf("")).ToInstance("fine")
	}))
	require.NoError(t, err)
}
