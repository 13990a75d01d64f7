package source

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the platform rejects the access token even after a refresh.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRefreshFailed is returned when the refresh-token grant fails.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrTransport wraps network and decoding failures.
	ErrTransport = errors.New("transport error")
	// ErrUnexpectedStatus is returned for non-2xx responses other than 401.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// FetchError describes a failed call to the platform API.
type FetchError struct {
	Kind   error
	Page   int
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := e.Kind.Error()
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
