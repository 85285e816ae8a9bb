package dihttp

import (
	"log/slog"
	"net/http"
	"reflect"

	di "github.com/kestrelgraph/injector"
	"github.com/kestrelgraph/injector/dicontext"
)

var httpRequestType = reflect.TypeOf((*http.Request)(nil))

// NewScopeMiddleware creates middleware that builds a new child *di.Injector
// for each request, with the *http.Request passed to the next handler (the
// one carrying the scope on its context) bound as an instance, and
// closes the scope after the request has been processed (spec.md §3
// "Lifecycle" — closing stops further resolution from the scope; it does
// not dispose of anything constructed during the request, see
// di.Injector.Close).
//
// The scope is stored on the request context and can be accessed using
// [dicontext.Injector], [dicontext.Resolve], or [dicontext.MustResolve].
//
// Available options:
//   - WithModules: install additional modules into the per-request scope.
//   - WithNewScopeErrorHandler: handle errors building the scope.
//   - WithScopeCloseErrorHandler: handle errors closing the scope.
//
// NewScopeMiddleware panics if an option reports an error (a nil handler).
// Each handler it wraps gets its own middleware value.
func NewScopeMiddleware(parent *di.Injector, opts ...ScopeMiddlewareOption) func(http.Handler) http.Handler {
	mw := &scopeMiddleware{
		parent:          parent,
		newScopeHandler: defaultNewScopeErrorHandler,
		closeHandler:    defaultScopeCloseErrorHandler,
	}
	for _, opt := range opts {
		if err := opt.applyScopeMiddleware(mw); err != nil {
			panic(err)
		}
	}

	return func(next http.Handler) http.Handler {
		m := *mw
		m.next = next
		return &m
	}
}

// NewScopeErrorHandler writes an error response to the client when building
// the per-request scope fails.
//
// The default handler logs to slog.Default() and writes a 500.
type NewScopeErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultNewScopeErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "error creating new HTTP request scope", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ScopeCloseErrorHandler handles errors closing the per-request scope after
// the request completes.
//
// The default handler logs to slog.Default().
type ScopeCloseErrorHandler = func(r *http.Request, err error)

func defaultScopeCloseErrorHandler(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "error closing HTTP request scope", "error", err)
}

type scopeMiddleware struct {
	parent          *di.Injector
	newScopeHandler NewScopeErrorHandler
	closeHandler    ScopeCloseErrorHandler
	modules         []di.Module
	next            http.Handler
}

func (m *scopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// req is bound now and filled in below with the request the next
	// handler receives, so resolving *http.Request there yields that pointer.
	req := new(http.Request)
	modules := append(append([]di.Module(nil), m.modules...),
		di.ModuleFunc(func(b *di.Binder) {
			b.Bind(httpRequestType).ToInstance(req)
		}),
	)

	scope, err := m.parent.NewChild(modules...)
	if err != nil {
		if m.newScopeHandler != nil {
			m.newScopeHandler(w, r, err)
		}
		return
	}

	ctx := dicontext.WithInjector(r.Context(), scope)
	*req = *r.WithContext(ctx)
	m.next.ServeHTTP(w, req)

	if err := scope.Close(ctx); err != nil && m.closeHandler != nil {
		m.closeHandler(req, err)
	}
}
