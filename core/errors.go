package core

import "github.com/pkg/errors"

type (
	// FieldError reports a problem with one input field, named the way the caller sent it.
	FieldError struct {
		Field string
		Error string
	}

	// ValidationError is a caller error: invalid or missing input. It always maps to 400.
	ValidationError struct {
		Err    error
		Fields []FieldError
	}
)

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewBadRequest returns a ValidationError carrying a single message and no field details.
func NewBadRequest(msg string) error {
	return &ValidationError{Err: errors.New(msg)}
}

// NewMissingFieldError reports a required input the caller left out.
func NewMissingFieldError(field, what string) error {
	return &ValidationError{
		Err:    errors.New("missing " + what),
		Fields: []FieldError{{Field: field, Error: "this field is required"}},
	}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap indexes the field errors by field; nil when there are none.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// shutdownError asks the API server to stop gracefully once the current response is written.
type shutdownError struct {
	reason string
}

func NewShutdownError(reason string) error {
	return &shutdownError{reason: reason}
}

func (s *shutdownError) Error() string {
	return "shutdown: " + s.reason
}

func IsShutdown(err error) bool {
	var s *shutdownError
	return errors.As(err, &s)
}
