package http

import "strconv"

// maxResponseHeaders bounds the header views a single response may carry.
// Exceeding it is reported as KindBufferOverflow, never as silent
// truncation of the header sequence.
const maxResponseHeaders = 64

// BodyKind tags the classification of a response body.
type BodyKind int

// Body classifications.
const (
	// BodyEmpty means no body bytes exist: zero or absent Content-Length,
	// or a method/status that mandates no body (HEAD, 1xx, 204, 304).
	BodyEmpty BodyKind = iota
	// BodyText means the Content-Type declares a text-like media type and
	// the payload is valid UTF-8.
	BodyText
	// BodyBinary is any other non-empty body.
	BodyBinary
)

// String returns a stable name for the kind.
func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyBinary:
		return "binary"
	}
	return "empty"
}

// Body is a response body view. The Text and Binary variants alias the
// response buffer; nothing is copied.
type Body struct {
	kind BodyKind
	data []byte
}

// Kind returns the body classification.
func (b Body) Kind() BodyKind { return b.kind }

// IsEmpty reports whether the body holds no bytes.
func (b Body) IsEmpty() bool { return b.kind == BodyEmpty }

// Len returns the body length in bytes.
func (b Body) Len() int { return len(b.data) }

// Bytes returns the raw body view. The slice aliases the response buffer.
func (b Body) Bytes() []byte { return b.data }

// Text returns the body as a string for text-classified bodies, and ""
// otherwise. The string aliases the response buffer without copying.
func (b Body) Text() string {
	if b.kind != BodyText {
		return ""
	}
	return weakString(b.data)
}

// Response is a parsed HTTP response. Its reason, header and body views
// all alias the single Buffer the call received into.
//
// A Response is valid only until its Buffer is passed into another
// request. The view accessors assert this: touching a Response whose
// buffer has been reused panics with a generation mismatch, turning a
// silent aliasing bug into an immediate development-time failure. Use
// Valid to check without panicking.
type Response struct {
	status StatusCode
	proto  string
	reason string

	nheaders int
	headers  [maxResponseHeaders]Header

	body Body

	buf *Buffer
	gen uint64

	timing TimingInfo
}

// Status returns the response status code.
func (r *Response) Status() StatusCode { return r.status }

// Timing returns the per-phase timing captured for the call.
func (r *Response) Timing() TimingInfo { return r.timing }

// Valid reports whether the response's views are still backed by live
// bytes, i.e. the buffer has not been borrowed by a later request.
func (r *Response) Valid() bool {
	return r.buf == nil || r.gen == r.buf.gen
}

func (r *Response) assertValid() {
	if !r.Valid() {
		panic("http: Response accessed after its Buffer was reused by a later request")
	}
}

// Proto returns the protocol token of the status line, e.g. "HTTP/1.1".
func (r *Response) Proto() string {
	r.assertValid()
	return r.proto
}

// Reason returns the reason phrase of the status line. May be empty.
func (r *Response) Reason() string {
	r.assertValid()
	return r.reason
}

// Headers returns the response headers in wire order. Names and values
// alias the response buffer.
func (r *Response) Headers() []Header {
	r.assertValid()
	return r.headers[:r.nheaders]
}

// Header returns the first value of the named header, case-insensitively,
// or "" when absent.
func (r *Response) Header(name string) string {
	r.assertValid()
	v, _ := headerValue(r.headers[:r.nheaders], name)
	return v
}

// Body returns the classified body view.
func (r *Response) Body() Body {
	r.assertValid()
	return r.body
}

// ContentType returns the declared Content-Type, or "" when absent.
func (r *Response) ContentType() string {
	return r.Header(HeaderContentType)
}

// ContentLength returns the declared Content-Length, or -1 when absent
// or unparsable.
func (r *Response) ContentLength() int {
	v := r.Header(HeaderContentLength)
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool { return r.status.IsSuccess() }

// IsRedirect reports whether the status code is in the 3xx range.
func (r *Response) IsRedirect() bool { return r.status.IsRedirect() }

// IsClientError reports whether the status code is in the 4xx range.
func (r *Response) IsClientError() bool { return r.status.IsClientError() }

// IsServerError reports whether the status code is in the 5xx range.
func (r *Response) IsServerError() bool { return r.status.IsServerError() }

// IsError reports whether the status code is 4xx or 5xx.
func (r *Response) IsError() bool { return r.status.IsError() }
