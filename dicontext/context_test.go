package dicontext_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	di "github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/dicontext"
)

type greeter struct {
	Name string
}

func newGreeter() *greeter { return &greeter{Name: "ahoy"} }

type unbound interface{ unused() }

func TestInjector(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*greeter](b).ToConstructor(newGreeter)
		}))
		require.NoError(t, err)

		ctx := dicontext.WithInjector(context.Background(), inj)
		assert.Same(t, inj, dicontext.Injector(ctx))
	})

	t.Run("not found", func(t *testing.T) {
		assert.Nil(t, dicontext.Injector(context.Background()))
	})
}

func TestResolve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*greeter](b).ToConstructor(newGreeter)
		}))
		require.NoError(t, err)

		ctx := dicontext.WithInjector(context.Background(), inj)
		got, err := dicontext.Resolve[*greeter](ctx)

		require.NoError(t, err)
		assert.Equal(t, &greeter{Name: "ahoy"}, got)
	})

	t.Run("no injector on context", func(t *testing.T) {
		_, err := dicontext.Resolve[*greeter](context.Background())
		assert.ErrorContains(t, err, "no injector on context")
	})

	t.Run("unresolvable key", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		ctx := dicontext.WithInjector(context.Background(), inj)
		_, err = dicontext.Resolve[unbound](ctx)
		assert.Error(t, err)
	})
}

func TestMustResolve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*greeter](b).ToConstructor(newGreeter)
		}))
		require.NoError(t, err)

		ctx := dicontext.WithInjector(context.Background(), inj)
		assert.Equal(t, &greeter{Name: "ahoy"}, dicontext.MustResolve[*greeter](ctx))
	})

	t.Run("panics without injector", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = dicontext.MustResolve[*greeter](context.Background())
		})
	})
}
