package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrorKind classifies every failure the engine can surface. Each call
// either returns a fully valid Response or an *Error carrying exactly one
// of these kinds; failures are never swallowed or downgraded.
type ErrorKind int

// Failure kinds.
const (
	KindUnknown ErrorKind = iota
	// KindInvalidTarget means the target URL could not be parsed.
	KindInvalidTarget
	// KindDNSResolution means hostname resolution failed or returned no
	// addresses.
	KindDNSResolution
	// KindConnectionFailed means the transport connection could not be
	// established.
	KindConnectionFailed
	// KindTLS means the TLS handshake or record layer failed.
	KindTLS
	// KindTimeout means the configured deadline expired, in whatever
	// state the call was in.
	KindTimeout
	// KindBufferOverflow means a request or response exceeded a
	// configured buffer capacity. Never reported as a truncated success.
	KindBufferOverflow
	// KindMalformedResponse means the response violated HTTP/1.1 syntax
	// or its framing was inconsistent with the bytes received.
	KindMalformedResponse
	// KindUnsupportedScheme means the target scheme is unknown, or
	// demands TLS while the TLS capability is not compiled in.
	KindUnsupportedScheme
	// KindTransportWrite is an I/O error while sending the request.
	KindTransportWrite
	// KindTransportRead is an I/O error while receiving the response.
	KindTransportRead
	// KindInvalidHeader means a header name or value carries a forbidden
	// control byte (CR, LF or NUL) and was rejected at serialization.
	KindInvalidHeader
)

// String returns a stable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidTarget:
		return "invalid_target"
	case KindDNSResolution:
		return "dns_resolution"
	case KindConnectionFailed:
		return "connection_failed"
	case KindTLS:
		return "tls_error"
	case KindTimeout:
		return "timeout"
	case KindBufferOverflow:
		return "buffer_overflow"
	case KindMalformedResponse:
		return "malformed_response"
	case KindUnsupportedScheme:
		return "unsupported_scheme"
	case KindTransportWrite:
		return "transport_write"
	case KindTransportRead:
		return "transport_read"
	case KindInvalidHeader:
		return "invalid_header"
	}
	return "unknown"
}

// transient reports whether failures of this kind may be retried when they
// occur no later than connection establishment.
func (k ErrorKind) transient() bool {
	return k == KindDNSResolution || k == KindConnectionFailed || k == KindTimeout
}

// Error is the typed failure returned by every engine operation.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind
	// Op names the engine step that failed, e.g. "resolve" or "read headers".
	Op string
	// Msg is an optional human-readable detail.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	s := "http: " + e.Kind.String()
	if e.Op != "" {
		s += " (" + e.Op + ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the error is a deadline breach. This satisfies
// the interface checked by errors helpers in the net package.
func (e *Error) Timeout() bool { return e.Kind == KindTimeout }

// KindOf extracts the ErrorKind from err, or KindUnknown if err was not
// produced by this package.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// newError builds an *Error from an engine step and cause. A cause that is
// itself a deadline breach is reclassified as KindTimeout so that timeouts
// surface uniformly regardless of the state they hit.
func newError(kind ErrorKind, op string, err error) *Error {
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// errorf builds an *Error with a formatted detail message and no cause.
func errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// isTimeout reports whether err represents a deadline breach, from either
// the context machinery or a transport deadline.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
