package dihttp

import (
	"errors"

	di "github.com/kestrelgraph/injector"
)

// ScopeMiddlewareOption configures the scope middleware returned by
// NewScopeMiddleware.
type ScopeMiddlewareOption interface {
	applyScopeMiddleware(*scopeMiddleware) error
}

type scopeMiddlewareOption func(*scopeMiddleware) error

func (o scopeMiddlewareOption) applyScopeMiddleware(m *scopeMiddleware) error {
	return o(m)
}

// WithModules installs additional modules into each request's child scope,
// alongside the *http.Request binding the middleware always adds.
func WithModules(modules ...di.Module) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		m.modules = append(m.modules, modules...)
		return nil
	})
}

// WithNewScopeErrorHandler sets the error handler used when building the
// per-request scope fails.
//
// The default logs to slog.Default and writes a 500 response.
// NewScopeMiddleware panics if h is nil.
func WithNewScopeErrorHandler(h NewScopeErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if h == nil {
			return errors.New("WithNewScopeErrorHandler: h is nil")
		}
		m.newScopeHandler = h
		return nil
	})
}

// WithScopeCloseErrorHandler sets the error handler used when closing the
// per-request scope fails.
//
// The default logs to slog.Default. NewScopeMiddleware panics if h is nil.
func WithScopeCloseErrorHandler(h ScopeCloseErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if h == nil {
			return errors.New("WithScopeCloseErrorHandler: h is nil")
		}
		m.closeHandler = h
		return nil
	})
}
