package http

import (
	"strconv"
	"strings"
)

// writeRequest serializes a request into dst and returns the number of
// bytes written. The request line, the caller's headers in order, a
// synthesized Host header (unless supplied) right after the request line,
// a synthesized Content-Length when a body is present and none was given,
// and a Connection: close header are emitted with strict CRLF line
// termination, followed by the body verbatim.
//
// A nil body means the request carries no body; a non-nil empty body is a
// present, zero-length body and still gets Content-Length: 0.
//
// Failure modes: KindInvalidHeader when a header embeds CR, LF or NUL,
// KindInvalidTarget when the target's host or path does (either would
// otherwise smuggle extra lines into the request), and
// KindBufferOverflow when the serialized request exceeds dst.
func writeRequest(dst []byte, method Method, t Target, headers []Header, body []byte) (int, error) {
	if !method.IsValid() {
		return 0, errorf(KindInvalidTarget, "serialize", "invalid method %q", string(method))
	}
	if hasForbiddenByte(t.Host) || hasForbiddenByte(t.Path) {
		return 0, errorf(KindInvalidTarget, "serialize", "control byte in target")
	}

	w := wireWriter{buf: dst}
	w.str(string(method))
	w.str(" ")
	w.str(t.Path)
	w.str(" HTTP/1.1\r\n")

	if _, ok := headerValue(headers, HeaderHost); !ok {
		w.str("Host: ")
		if strings.IndexByte(t.Host, ':') >= 0 {
			w.str("[")
			w.str(t.Host)
			w.str("]")
		} else {
			w.str(t.Host)
		}
		if !t.defaultPort() {
			w.str(":")
			w.int(t.Port)
		}
		w.str("\r\n")
	}

	haveContentLength := false
	haveConnection := false
	for _, h := range headers {
		if hasForbiddenByte(h.Name) || hasForbiddenByte(h.Value) {
			return 0, errorf(KindInvalidHeader, "serialize", "control byte in header %q", h.Name)
		}
		w.str(h.Name)
		w.str(": ")
		w.str(h.Value)
		w.str("\r\n")
		if strings.EqualFold(h.Name, HeaderContentLength) {
			haveContentLength = true
		}
		if strings.EqualFold(h.Name, HeaderConnection) {
			haveConnection = true
		}
	}

	if body != nil && !haveContentLength {
		w.str("Content-Length: ")
		w.int(len(body))
		w.str("\r\n")
	}
	if !haveConnection {
		w.str("Connection: close\r\n")
	}
	w.str("\r\n")
	w.bytes(body)

	if w.overflow {
		return 0, errorf(KindBufferOverflow, "serialize", "request exceeds %d-byte transmit buffer", len(dst))
	}
	return w.n, nil
}

// hasForbiddenByte reports whether s embeds a byte that must never appear
// inside a header name or value on the wire.
func hasForbiddenByte(s string) bool {
	return strings.IndexByte(s, '\r') >= 0 ||
		strings.IndexByte(s, '\n') >= 0 ||
		strings.IndexByte(s, 0) >= 0
}

// wireWriter appends into a fixed buffer, latching an overflow flag
// instead of growing. All writes after an overflow are no-ops.
type wireWriter struct {
	buf      []byte
	n        int
	overflow bool
}

func (w *wireWriter) str(s string) {
	if w.overflow || w.n+len(s) > len(w.buf) {
		w.overflow = true
		return
	}
	copy(w.buf[w.n:], s)
	w.n += len(s)
}

func (w *wireWriter) bytes(p []byte) {
	if w.overflow || w.n+len(p) > len(w.buf) {
		w.overflow = true
		return
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
}

func (w *wireWriter) int(v int) {
	var tmp [20]byte
	w.bytes(strconv.AppendInt(tmp[:0], int64(v), 10))
}
