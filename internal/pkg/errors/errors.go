package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"syscall"
)

// New creates a new instance of the base error
func New(msg string) error {
	return fmt.Errorf("%s: %s", msg, filePath())
}

// Wrap creates a new error of the wrapped error
func Wrap(err error, msg string) error {
	return fmt.Errorf("%s %s \ncaused by: %w", msg, filePath(), err)
}

// Is checks if the error is equal to the target
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As returns the wrapped error
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Errorf(format string, args ...interface{}) error {
	args = append(args, filePath())
	return fmt.Errorf(format+` %s`, args...)
}

func filePath() string {
	pc, f, l, ok := runtime.Caller(2)
	fn := `unknown`
	if ok {
		fn = runtime.FuncForPC(pc).Name()
	}
	return fmt.Sprintf("at %s\n\t%s:%d", fn, f, l)
}

// TransportError is a failure below HTTP: refused or reset connections, DNS, TLS.
// Permanent errors are never retried.
type TransportError struct {
	Err       error
	Permanent bool
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError is a request that did not complete within the per-request timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return `timeout: ` + e.Err.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// HTTPError carries a terminal status code outside 2xx.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`http status %d`, e.StatusCode)
}

// IsTransientStatus reports whether a response status is worth another attempt.
func IsTransientStatus(code int) bool {
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

// IsTransient reports whether err may succeed on a later attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	var tr *TransportError
	if errors.As(err, &tr) {
		return !tr.Permanent
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return IsTransientStatus(he.StatusCode)
	}
	return false
}

// ClassifyTransport maps an error returned by http.Client.Do onto the fetch taxonomy.
// Cancellation of the caller's context is returned unchanged.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{Err: err, Permanent: !dnsErr.IsTemporary}
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		recordHeader     tls.RecordHeaderError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostname) ||
		errors.As(err, &invalidCert) || errors.As(err, &recordHeader) {
		return &TransportError{Err: err, Permanent: true}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return &TransportError{Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransportError{Err: err}
	}

	// unsupported scheme, malformed request, redirect policy failures
	return &TransportError{Err: err, Permanent: true}
}
