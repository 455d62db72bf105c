package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// StatusError reports a non-2xx response from the remote store.
type StatusError struct {
	StatusCode int
	Operation  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
}

// NewStatusError creates a StatusError for the given operation and status code.
func NewStatusError(operation string, statusCode int) *StatusError {
	return &StatusError{Operation: operation, StatusCode: statusCode}
}

// StatusCode extracts an HTTP status code from err, or 0 when none is attached.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsTransient reports whether the error is worth retrying on the next scheduled
// refresh. The engine never retries inline; classification only drives the log
// level so that expected flakiness stays at debug.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if code := StatusCode(err); code > 0 {
		switch code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
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

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}

	return false
}

// IsPermanent reports whether the error should not recur on retry, e.g. an
// auth or contract problem.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if code := StatusCode(err); code > 0 {
		switch code {
		case http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusMethodNotAllowed,
			http.StatusConflict,
			http.StatusGone,
			http.StatusUnprocessableEntity:
			return true
		}
	}
	return false
}
