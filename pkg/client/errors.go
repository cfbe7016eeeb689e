package client

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed performs any operation on the closed client will return this error.
	ErrClosed = errors.New("kvwire: client is closed")
)

// ServerError is a command-level failure: the server answered the command
// with an error frame. The text is the frame payload verbatim, leading
// error-code token included. It affects one command, not the connection.
type ServerError string

func (e ServerError) Error() string {
	return string(e)
}

// TransportError is loss of the byte stream or an unrecoverable framing
// violation. It poisons the connection: the in-flight command and every
// queued command fail with the same instance.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kvwire: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// wrapTransport tags err as a transport failure unless it already is one.
func wrapTransport(op string, err error) error {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr
	}
	return &TransportError{Op: op, Err: err}
}
