package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks a missing or invalid map controller argument.
	ErrConfig = errors.New("invalid map configuration")

	// ErrUnexpectedStatus marks a non-200 response from the data API.
	ErrUnexpectedStatus = errors.New("unexpected status from data api")

	// ErrMalformedResponse marks a 200 response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed data api response")

	// ErrStaleRefresh is returned for a refresh superseded by a newer one.
	ErrStaleRefresh = errors.New("refresh superseded by a newer viewport")

	// ErrControllerClosed is returned once the controller has been closed.
	ErrControllerClosed = errors.New("map controller closed")

	// ErrInvalidQuery marks a query rejected before reaching the data API.
	ErrInvalidQuery = errors.New("invalid sighting query")
)

// ConfigError names the offending constructor argument.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return e.Field + " is not defined"
	}
	return e.Field + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// StatusError is a non-200 response from the data API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// DecodeError is a JSON failure on an otherwise successful response.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformedResponse, e.Err} }
