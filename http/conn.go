package http

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

// connState tracks the per-call state machine. A call moves strictly
// forward through these states; stateFailed absorbs a failure from any of
// them.
type connState int

const (
	stateResolving connState = iota
	stateConnecting
	stateTLSHandshaking
	stateSending
	stateReceivingHeaders
	stateReceivingBody
	stateComplete
	stateFailed
)

func (s connState) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateConnecting:
		return "connecting"
	case stateTLSHandshaking:
		return "tls_handshaking"
	case stateSending:
		return "sending"
	case stateReceivingHeaders:
		return "receiving_headers"
	case stateReceivingBody:
		return "receiving_body"
	case stateComplete:
		return "complete"
	}
	return "failed"
}

// exchange is one request/response cycle. The connection it opens exists
// only for the call: it is created after the request is serialized and
// closed at completion, success or failure. There is no pooling or reuse.
type exchange struct {
	client  *Client
	method  Method
	target  Target
	request []byte // serialized request, a view into the client's transmit buffer
	buf     []byte // response storage borrowed from the caller's Buffer
	resp    *Response

	state     connState
	failState connState
	conn      Conn
	wroteAny  bool

	n             int // valid bytes received into buf
	transferStart time.Time
}

// run drives the exchange with the configured retry policy. Only
// transient failures (DNS, connect, timeout) that occurred no later than
// connection establishment are retried, and never once any request byte
// has been written, so a partially transmitted request can never be
// duplicated.
func (e *exchange) run(ctx context.Context) error {
	attempts := e.client.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := e.attempt(ctx)
		if err == nil {
			return nil
		}
		if attempt >= attempts || !e.retryable(err) {
			return err
		}
		if delay := e.client.retry.Delay; delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return newError(KindTimeout, "retry wait", ctx.Err())
			case <-t.C:
			}
		}
		e.reset()
	}
}

func (e *exchange) retryable(err error) bool {
	if e.wroteAny || e.failState > stateConnecting {
		return false
	}
	return KindOf(err).transient()
}

// reset prepares the exchange for the next attempt without disturbing the
// buffer borrow.
func (e *exchange) reset() {
	e.n = 0
	*e.resp = Response{buf: e.resp.buf, gen: e.resp.gen}
}

// attempt runs the state machine once: resolve, connect, optional TLS
// handshake, send, receive headers, receive body. Every step is bounded
// by the call deadline.
func (e *exchange) attempt(ctx context.Context) (err error) {
	defer func() {
		if e.conn != nil {
			e.conn.Close()
			e.conn = nil
		}
		if err != nil {
			e.failState = e.state
			e.state = stateFailed
		}
	}()

	start := time.Now()
	e.resp.timing = TimingInfo{StartTime: start}
	timing := &e.resp.timing

	deadline := start.Add(e.client.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	opCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	e.state = stateResolving
	addrs, err := e.client.resolver.LookupHost(opCtx, e.target.Host)
	if err != nil {
		return newError(KindDNSResolution, "resolve", err)
	}
	if len(addrs) == 0 {
		return errorf(KindDNSResolution, "resolve", "no addresses for %q", e.target.Host)
	}
	timing.DNSLookupTime = time.Since(start)
	phaseEnd := time.Now()

	e.state = stateConnecting
	addr := net.JoinHostPort(addrs[0], strconv.Itoa(e.target.Port))
	nc, err := e.client.dialer.DialContext(opCtx, "tcp", addr)
	if err != nil {
		return newError(KindConnectionFailed, "connect", err)
	}
	e.conn = nc
	if err := nc.SetDeadline(deadline); err != nil {
		return newError(KindConnectionFailed, "connect", err)
	}
	timing.TCPConnectTime = time.Since(phaseEnd)
	phaseEnd = time.Now()

	secure := e.target.Secure()
	if secure {
		e.state = stateTLSHandshaking
		tconn, herr := e.client.handshaker.Handshake(opCtx, nc, e.target.Host)
		if herr != nil {
			var typed *Error
			if errors.As(herr, &typed) {
				return typed
			}
			return newError(KindTLS, "handshake", herr)
		}
		e.conn = tconn
		timing.TLSHandshakeTime = time.Since(phaseEnd)
		phaseEnd = time.Now()
	}

	e.state = stateSending
	if err := e.send(secure); err != nil {
		return err
	}

	e.state = stateReceivingHeaders
	headerEnd, err := e.receiveHeaders(secure, phaseEnd, timing)
	if err != nil {
		return err
	}
	if err := e.resp.parseHeaders(e.buf[:headerEnd]); err != nil {
		return err
	}

	e.state = stateReceivingBody
	bodyLen, err := e.resp.declaredBodyLength(e.method)
	if err != nil {
		return err
	}
	body, err := e.receiveBody(headerEnd, bodyLen, secure)
	if err != nil {
		return err
	}

	contentType, _ := headerValue(e.resp.headers[:e.resp.nheaders], HeaderContentType)
	e.resp.body = classifyBody(contentType, body)

	e.state = stateComplete
	if !e.transferStart.IsZero() {
		timing.ContentTransferTime = time.Since(e.transferStart)
	}
	timing.TotalTime = time.Since(start)
	return nil
}

// send flushes the serialized request, retrying partial writes until the
// whole buffer is on the wire. Writes over TLS are chunked at the
// configured write-record size.
func (e *exchange) send(secure bool) error {
	chunk := len(e.request)
	if secure && e.client.sizes.TLSWriteRecord > 0 && e.client.sizes.TLSWriteRecord < chunk {
		chunk = e.client.sizes.TLSWriteRecord
	}
	for off := 0; off < len(e.request); {
		end := off + chunk
		if end > len(e.request) {
			end = len(e.request)
		}
		n, err := e.conn.Write(e.request[off:end])
		if n > 0 {
			e.wroteAny = true
			off += n
		}
		if err != nil {
			return newError(KindTransportWrite, "send", err)
		}
	}
	return nil
}

// readCap bounds a single transport read: never past the caller's limit,
// never more than the receive chunk size, and for TLS never more than the
// read-record size.
func (e *exchange) readCap(limit int, secure bool) int {
	max := e.client.sizes.Receive
	if secure && e.client.sizes.TLSReadRecord > 0 && e.client.sizes.TLSReadRecord < max {
		max = e.client.sizes.TLSReadRecord
	}
	if max <= 0 || max > limit {
		return limit
	}
	return max
}

// receiveHeaders reads until the header section closes. Filling the
// buffer without closing it is an overflow; a clean close before it
// completes is a malformed response.
func (e *exchange) receiveHeaders(secure bool, phaseEnd time.Time, timing *TimingInfo) (int, error) {
	for {
		if end := headerSectionEnd(e.buf[:e.n]); end >= 0 {
			return end, nil
		}
		if e.n == len(e.buf) {
			return 0, errorf(KindBufferOverflow, "read headers", "header section exceeds %d-byte buffer", len(e.buf))
		}
		n, err := e.conn.Read(e.buf[e.n : e.n+e.readCap(len(e.buf)-e.n, secure)])
		if n > 0 {
			if e.n == 0 {
				timing.TimeToFirstByte = time.Since(phaseEnd)
				e.transferStart = time.Now()
			}
			e.n += n
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if e.n == 0 {
					return 0, errorf(KindTransportRead, "read headers", "connection closed with no response")
				}
				return 0, errorf(KindMalformedResponse, "read headers", "connection closed mid header section")
			}
			return 0, newError(KindTransportRead, "read headers", err)
		}
	}
}

// receiveBody completes the body per its framing: a declared
// Content-Length is read exactly, an undeclared body runs to connection
// close. A body the buffer cannot hold is an overflow, never a truncated
// success.
func (e *exchange) receiveBody(headerEnd, bodyLen int, secure bool) ([]byte, error) {
	if bodyLen == 0 {
		return nil, nil
	}

	if bodyLen > 0 {
		need := headerEnd + bodyLen
		if need > len(e.buf) {
			return nil, errorf(KindBufferOverflow, "read body", "%d-byte response exceeds %d-byte buffer", need, len(e.buf))
		}
		for e.n < need {
			n, err := e.conn.Read(e.buf[e.n : e.n+e.readCap(need-e.n, secure)])
			if n > 0 {
				e.n += n
				continue
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil, errorf(KindMalformedResponse, "read body",
						"connection closed after %d of %d body bytes", e.n-headerEnd, bodyLen)
				}
				return nil, newError(KindTransportRead, "read body", err)
			}
		}
		return e.buf[headerEnd:need], nil
	}

	// No declared length: the close is the end marker.
	for {
		if e.n == len(e.buf) {
			// One probe byte decides between a body that exactly fills the
			// buffer and one that overflows it.
			var probe [1]byte
			n, err := e.conn.Read(probe[:])
			if n > 0 {
				return nil, errorf(KindBufferOverflow, "read body", "response exceeds %d-byte buffer", len(e.buf))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, newError(KindTransportRead, "read body", err)
			}
			continue
		}
		n, err := e.conn.Read(e.buf[e.n : e.n+e.readCap(len(e.buf)-e.n, secure)])
		if n > 0 {
			e.n += n
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, newError(KindTransportRead, "read body", err)
		}
	}
	return e.buf[headerEnd:e.n], nil
}
