package records

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is an upstream 422: the backend rejected a write with field-level messages.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "upstream validation failed: " + strings.Join(keys, ", ")
}

// NotFoundError reports a resource the upstream does not know about.
type NotFoundError struct {
	Kind string // faculty, class, student, enrollment
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// UpstreamError is any other non-2xx answer from the upstream.
type UpstreamError struct {
	Status   int
	Message  string
	Endpoint string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// UnavailableError is a network-level failure: the upstream could not be reached or did not answer in time.
type UnavailableError struct {
	Endpoint string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
