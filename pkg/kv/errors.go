package kv

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	// ErrNotFound is returned by Backend.Get for absent or expired keys.
	ErrNotFound = errors.New("kv.not_found")

	// ErrUnavailable marks failures to reach the backing store.
	ErrUnavailable = errors.New("kv.unavailable")

	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("kv.closed")
)

// Unavailable wraps err with ErrUnavailable. A nil err yields nil.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return errors.Join(ErrUnavailable, err)
}

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsConnectionError reports whether err looks like a transport level failure:
// refused or reset connections, dial errors, network timeouts and streams
// closed mid-reply. Backends use it to decide when to wrap with ErrUnavailable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
