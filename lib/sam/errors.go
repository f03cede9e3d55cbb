// Package sam implements the client side of a SAM v3 bridge: control
// connections, stream sessions, listeners, and the stream wrapper the
// relay core splices. One session backs one listener; every stream rides
// its own data connection to the bridge.
package sam

import (
	"errors"
	"fmt"
)

// Facade errors.
var (
	// ErrNotStreamSession indicates a listener was requested from a
	// session whose style is not STREAM.
	ErrNotStreamSession = errors.New("session style is not STREAM")

	// ErrStreamDetached indicates the stream wrapper was used after
	// Detach handed its socket away.
	ErrStreamDetached = errors.New("stream already detached")

	// ErrSessionClosed indicates the session control connection is gone.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotTCP indicates the bridge connection is not a TCP socket and
	// cannot be detached.
	ErrNotTCP = errors.New("bridge connection is not TCP")

	// ErrReplyTooLong indicates the bridge sent an unreasonably long
	// reply line.
	ErrReplyTooLong = errors.New("bridge reply line too long")
)

// BridgeError wraps a failure talking to the SAM bridge with the
// operation that failed.
type BridgeError struct {
	Endpoint  string // bridge address
	Operation string // e.g. "hello", "session create", "stream accept"
	Err       error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("sam %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("sam %s (%s): %v", e.Operation, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// bridgeErr builds a BridgeError.
func bridgeErr(endpoint, op string, err error) error {
	return &BridgeError{Endpoint: endpoint, Operation: op, Err: err}
}
