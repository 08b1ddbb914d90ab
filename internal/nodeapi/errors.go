package nodeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMalformedResponse is wrapped by APIError when a body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// TransportError is returned when a node could not be reached or did not
// answer: dial failures, timeouts, resets and unreadable bodies.
type TransportError struct {
	Peer string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// APIError is returned when a node answered but the body reports failure:
// an HTTP error status, {"success": false}, an error message, or an
// undecodable payload.
type APIError struct {
	Status  int
	Message string
	Errors  json.RawMessage
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.Status, msg, e.Err)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an APIError carrying HTTP 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
