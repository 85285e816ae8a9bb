package errs

import (
	"strconv"
	"strings"
)

// CreationError is thrown at the end of the validate phase (spec.md §4.5
// step 12) carrying every accumulated, deduplicated, source-sorted message.
type CreationError struct {
	Messages []Message
}

// NewCreationError builds a CreationError from an Errors collection.
// Returns nil if there are no messages, so callers can write
// `if err := NewCreationError(errs); err != nil { return err }`.
func NewCreationError(e *Errors) *CreationError {
	if e == nil || e.Empty() {
		return nil
	}
	return &CreationError{Messages: e.Deduplicated()}
}

func (e *CreationError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "injector creation failed"
	}

	var b strings.Builder
	b.WriteString("injector creation failed with ")
	if len(e.Messages) == 1 {
		b.WriteString("1 error:\n\n")
	} else {
		b.WriteString(strconv.Itoa(len(e.Messages)))
		b.WriteString(" errors:\n\n")
	}

	for i, m := range e.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.String())
	}

	return b.String()
}

func (e *CreationError) Unwrap() []error {
	out := make([]error, len(e.Messages))
	for i, m := range e.Messages {
		if m.Cause != nil {
			out[i] = m.Cause
			continue
		}
		out[i] = New(m.Text)
	}
	return out
}
