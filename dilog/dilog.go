// Package dilog provides the structured logging calls the build pipeline
// and construction engine emit (spec.md §5's "diagnostic hooks" generalized
// with the corpus's own logging library rather than left as bare stdlib
// fmt.Printf, see storj/mud's *zap.Logger-typed diagnostics field for the
// pattern this is grounded on). Every function takes a *zap.Logger
// explicitly rather than holding one as package state, so a Nop logger
// (the Injector default) and a real one cost the same call shape.
package dilog

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelgraph/injector/internal/errs"
	"github.com/kestrelgraph/injector/key"
)

// Nop returns a logger that discards everything, the default every
// Injector is built with until a caller opts into real diagnostics via
// di.WithLogger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// PhaseStarted/PhaseCompleted bracket one of the 14 build-pipeline phases
// (spec.md §4.5), at debug level since a healthy build runs all of them
// every time.
func PhaseStarted(l *zap.Logger, phase string) {
	l.Debug("build phase started", zap.String("phase", phase))
}

func PhaseCompleted(l *zap.Logger, phase string, d time.Duration) {
	l.Debug("build phase completed", zap.String("phase", phase), zap.Duration("elapsed", d))
}

func PhaseFailed(l *zap.Logger, phase string, err error) {
	l.Warn("build phase reported errors", zap.String("phase", phase), zap.Error(err))
}

// BindingRegistered logs an explicit binding as it lands in the store
// (resolver.go's putExplicit), identified by both its Key and its own
// stable ID so a binding that's later replaced under the same Key (a
// child's explicit binding shadowing a parent's scoped one) is still
// distinguishable in the log.
func BindingRegistered(l *zap.Logger, k key.Key, id uuid.UUID, src errs.Source) {
	l.Debug("binding registered",
		zap.Stringer("key", k),
		zap.String("binding_id", id.String()),
		zap.Stringer("source", src),
	)
}

// ProvisionStarted/Completed/Failed bracket one GetInstance call. requestID correlates every log line produced while resolving the
// same top-level call, including nested dependency constructions, the way
// the teacher's resolveVisitor correlates a single resolution's visited set
// by a generated uuid.UUID rather than by goroutine identity.
func ProvisionStarted(l *zap.Logger, requestID uuid.UUID, k key.Key) {
	l.Debug("provision started", zap.String("request_id", requestID.String()), zap.Stringer("key", k))
}

func ProvisionCompleted(l *zap.Logger, requestID uuid.UUID, k key.Key, d time.Duration) {
	l.Debug("provision completed",
		zap.String("request_id", requestID.String()),
		zap.Stringer("key", k),
		zap.Duration("elapsed", d),
	)
}

func ProvisionFailed(l *zap.Logger, requestID uuid.UUID, k key.Key, err error) {
	l.Warn("provision failed",
		zap.String("request_id", requestID.String()),
		zap.Stringer("key", k),
		zap.Error(err),
	)
}

// Constructing logs a single binding actually being invoked (as opposed to
// served from a scope cache), at debug level since this fires once per
// non-cached dependency in a resolution tree.
func Constructing(l *zap.Logger, k key.Key, id uuid.UUID) {
	l.Debug("constructing", zap.Stringer("key", k), zap.String("binding_id", id.String()))
}
