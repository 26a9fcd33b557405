// Package errs provides the error types the node handlers use to report
// failures back to clients.
package errs

import (
	"errors"
	"fmt"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context. The message of a trusted error
// is safe to return to the client.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// Status pairs a sentinel error from the business layer with the HTTP
// status a client sees when a request fails with it.
type Status struct {
	Err  error
	Code int
}

// Statuses is an ordered set of sentinel errors a handler knows how to
// report. The first match wins.
type Statuses []Status

// Trust wraps err as a Trusted error using the status of the first
// sentinel it matches. An error matching no sentinel is returned wrapped
// with the context message so it is reported as a 500.
func (ss Statuses) Trust(err error, context string) error {
	for _, s := range ss {
		if errors.Is(err, s.Err) {
			return NewTrusted(err, s.Code)
		}
	}

	return fmt.Errorf("%s: %w", context, err)
}
