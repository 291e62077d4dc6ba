package modbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrTimeout           = errors.New("timeout")
	ErrProtocol          = errors.New("protocol error")
	ErrDisconnected      = errors.New("disconnected")
)

// TransportError is what every failed read returns. It matches both its Kind
// and the underlying cause with errors.Is.
type TransportError struct {
	Kind error
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("modbus %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("modbus %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ExceptionError is a well-formed exception response from the slave.
type ExceptionError struct {
	Function byte
	Code     byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("exception 0x%02x for function 0x%02x", e.Code, e.Function)
}

func protocolError(op string, format string, args ...any) error {
	return &TransportError{Kind: ErrProtocol, Op: op, Err: fmt.Errorf(format, args...)}
}

// classify maps dial and I/O failures onto the four transport error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}

	kind := ErrDisconnected
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = ErrConnectionRefused
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		kind = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrTimeout
	case errors.Is(err, io.ErrUnexpectedEOF):
		// the peer sent part of a frame and went away
		kind = ErrProtocol
	}
	return &TransportError{Kind: kind, Op: op, Err: err}
}
