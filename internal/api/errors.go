package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches a *StatusError carrying HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidID is returned before any request when a receipt id cannot be
// placed in a URL path.
var ErrInvalidID = errors.New("invalid receipt id")

// StatusError is a response the server rejected. Message is the server's own
// human-readable text when the body carried one.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// NetworkError means no usable response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
