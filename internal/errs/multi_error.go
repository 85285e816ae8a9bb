package errs

import (
	"go.uber.org/multierr"
)

// MultiError is a collection of errors collected during a single phase.
//
// Join uses go.uber.org/multierr: it flattens nested multi-errors and drops
// nils; it does not remove duplicate errors. Used by the post-validation
// phases in phases.go and by initializer.injectAll.
type MultiError []error

// Append appends an error to the collection. Nil errors are ignored.
func (e MultiError) Append(err error) MultiError {
	if err == nil {
		return e
	}
	return append(e, err)
}

// Join combines all errors into a single error, or nil if there are none.
func (e MultiError) Join() error {
	if len(e) == 0 {
		return nil
	}
	return multierr.Combine([]error(e)...)
}
