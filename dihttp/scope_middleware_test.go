package dihttp_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	di "github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/dicontext"
	"github.com/kestrelgraph/injector/dihttp"
	"github.com/kestrelgraph/injector/internal/testutils"
)

type requestTagged struct {
	Tag string
}

func TestNewScopeMiddleware(t *testing.T) {
	t.Run("multiple middleware calls", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		mw := dihttp.NewScopeMiddleware(inj)

		handlerA := mw(http.NotFoundHandler())
		handlerB := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(500)
		}))

		assert.Equal(t, http.StatusNotFound, runRequest(t, handlerA, "/"))
		assert.Equal(t, http.StatusInternalServerError, runRequest(t, handlerB, "/"))
	})
}

func TestScopeMiddleware(t *testing.T) {
	t.Run("request-scoped service", func(t *testing.T) {
		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*requestTagged](b).ToConstructor(func(r *http.Request) *requestTagged {
				return &requestTagged{Tag: r.URL.Path}
			}).In(di.NewScope("request"))
		}))
		require.NoError(t, err)

		mw := dihttp.NewScopeMiddleware(inj)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, resolveErr := dicontext.Resolve[*requestTagged](r.Context())
			assert.NoError(t, resolveErr)
			assert.Equal(t, r.URL.Path, got.Tag)
			w.WriteHeader(http.StatusOK)
		})

		code := runRequest(t, mw(handler), "/hello")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("*http.Request is bound per scope", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		mw := dihttp.NewScopeMiddleware(inj)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, resolveErr := dicontext.Resolve[*http.Request](r.Context())
			assert.NoError(t, resolveErr)
			assert.Same(t, r, got)
			w.WriteHeader(http.StatusOK)
		})

		code := runRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("WithModules", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		extra := di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*requestTagged](b).ToInstance(&requestTagged{Tag: "injected"})
		})

		mw := dihttp.NewScopeMiddleware(inj, dihttp.WithModules(extra))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, resolveErr := dicontext.Resolve[*requestTagged](r.Context())
			assert.NoError(t, resolveErr)
			assert.Equal(t, "injected", got.Tag)
			w.WriteHeader(http.StatusOK)
		})

		code := runRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("concurrent requests get independent scopes", func(t *testing.T) {
		const concurrency = 200

		inj, err := di.New(di.Development, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*requestTagged](b).ToConstructor(func(r *http.Request) *requestTagged {
				return &requestTagged{Tag: r.URL.Path}
			}).In(di.NewScope("request"))
		}))
		require.NoError(t, err)

		mw := dihttp.NewScopeMiddleware(inj)

		tags := make(chan string, concurrency)
		expected := make(chan string, concurrency)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, resolveErr := dicontext.Resolve[*requestTagged](r.Context())
			assert.NoError(t, resolveErr)
			tags <- got.Tag
		}))

		testutils.RunParallel(concurrency, func(i int) {
			path := fmt.Sprintf("/%d", i)
			expected <- path
			runRequest(t, handler, path)
		})

		close(tags)
		close(expected)

		assert.ElementsMatch(t, testutils.CollectChannel(expected), testutils.CollectChannel(tags))
	})

	t.Run("new scope error handler is called", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		// A module that also binds *http.Request collides with the
		// binding the middleware always adds, forcing NewChild to fail.
		conflicting := di.ModuleFunc(func(b *di.Binder) {
			b.Bind(reflect.TypeOf((*http.Request)(nil))).ToInstance(&http.Request{})
		})

		called := false
		mw := dihttp.NewScopeMiddleware(inj, dihttp.WithModules(conflicting),
			dihttp.WithNewScopeErrorHandler(
				func(w http.ResponseWriter, r *http.Request, err error) {
					assert.Error(t, err)
					called = true
					w.WriteHeader(599)
				},
			))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Fail(t, "handler should not be called")
		})

		code := runRequest(t, mw(handler), "/")
		assert.Equal(t, 599, code)
		assert.True(t, called)
	})

	t.Run("scope close error handler is not called when Close succeeds", func(t *testing.T) {
		inj, err := di.New(di.Development)
		require.NoError(t, err)

		called := false
		mw := dihttp.NewScopeMiddleware(inj, dihttp.WithScopeCloseErrorHandler(
			func(r *http.Request, err error) {
				called = true
			},
		))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		code := runRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)
		// Close never fails in this implementation (spec.md §3: no
		// disposal hooks to run), so the handler is never invoked.
		assert.False(t, called)
	})
}

func runRequest(t *testing.T, h http.Handler, path string) int {
	t.Helper()
	res := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	h.ServeHTTP(res, req)
	return res.Code
}
