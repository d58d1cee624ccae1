package http

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// BufferSizes fixes the capacity of every buffer a Client works with.
// The sizes are chosen once at construction and shared by all calls made
// through the client; they bound the largest request, response header
// section and TLS record the client can handle. Exceeding a bound during
// a call is a KindBufferOverflow failure, never a silent truncation.
type BufferSizes struct {
	// Receive caps the bytes requested from the transport per read.
	Receive int
	// Transmit is the capacity of the request serialization buffer and
	// therefore the maximum serialized request size.
	Transmit int
	// TLSReadRecord caps per-read chunks moved through the TLS record
	// layer.
	TLSReadRecord int
	// TLSWriteRecord caps per-write chunks moved through the TLS record
	// layer.
	TLSWriteRecord int
}

// DefaultBufferSizes returns the standard preset.
func DefaultBufferSizes() BufferSizes {
	return BufferSizes{
		Receive:        4096,
		Transmit:       4096,
		TLSReadRecord:  16384,
		TLSWriteRecord: 16384,
	}
}

// SmallBufferSizes returns a preset for tightly bounded memory use.
func SmallBufferSizes() BufferSizes {
	return BufferSizes{
		Receive:        1024,
		Transmit:       1024,
		TLSReadRecord:  4096,
		TLSWriteRecord: 4096,
	}
}

func (s BufferSizes) validate() error {
	if s.Receive <= 0 || s.Transmit <= 0 || s.TLSReadRecord <= 0 || s.TLSWriteRecord <= 0 {
		return fmt.Errorf("http: buffer sizes must be positive, got %+v", s)
	}
	return nil
}

// RetryPolicy bounds re-attempts for transient failures (DNS, connect,
// timeout) that occur no later than connection establishment. A request
// that has started transmitting is never retried.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// Defaults applied by NewClient.
const (
	DefaultTimeout       = 60 * time.Second
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = 200 * time.Millisecond
)

// Client is an HTTP/1.1 client engine that parses responses in place
// inside caller-owned buffers. It opens one single-shot connection per
// call and never allocates for response data.
//
// A Client may be shared across goroutines, but calls serialize on the
// client's transmit buffer; give each concurrent caller its own Buffer,
// and for parallel requests its own Client.
type Client struct {
	sizes      BufferSizes
	timeout    time.Duration
	retry      RetryPolicy
	dialer     Dialer
	resolver   Resolver
	handshaker Handshaker

	txMu sync.Mutex
	tx   []byte
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client with the given options. Buffer sizes are
// validated once, here; they cannot change afterwards.
//
// Example:
//
//	client, err := http.NewClient(
//	    http.WithBufferSizes(http.SmallBufferSizes()),
//	    http.WithTimeout(10*time.Second),
//	)
func NewClient(options ...ClientOption) (*Client, error) {
	c := &Client{
		sizes:      DefaultBufferSizes(),
		timeout:    DefaultTimeout,
		retry:      RetryPolicy{MaxAttempts: DefaultRetryAttempts, Delay: DefaultRetryDelay},
		dialer:     &net.Dialer{},
		resolver:   net.DefaultResolver,
		handshaker: defaultHandshaker(),
	}
	for _, option := range options {
		option(c)
	}
	if err := c.sizes.validate(); err != nil {
		return nil, err
	}
	c.tx = make([]byte, c.sizes.Transmit)
	return c, nil
}

// WithBufferSizes fixes the client's buffer capacities.
func WithBufferSizes(sizes BufferSizes) ClientOption {
	return func(c *Client) {
		c.sizes = sizes
	}
}

// WithTimeout sets the per-call deadline. Every resolve, connect,
// handshake, write and read step of a call is bounded by it. The default
// is DefaultTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetry sets the retry policy for transient pre-connection failures.
func WithRetry(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithDialer replaces the transport capability used to open connections.
func WithDialer(dialer Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithResolver replaces the hostname resolution capability.
func WithResolver(resolver Resolver) ClientOption {
	return func(c *Client) {
		c.resolver = resolver
	}
}

// WithHandshaker replaces the TLS capability. Passing nil disables it,
// making https targets fail with KindUnsupportedScheme.
func WithHandshaker(handshaker Handshaker) ClientOption {
	return func(c *Client) {
		c.handshaker = handshaker
	}
}

// Do performs one request and parses the response in place inside buf.
// The returned Response's header and body views alias buf and stay valid
// until buf is passed into another request; the second return value is
// the total bytes received into buf.
//
// body semantics: nil means no body; a non-nil empty slice is a present,
// zero-length body.
//
// On failure the response is nil and the error is an *Error carrying one
// of the ErrorKind values — never a partially parsed response.
func (c *Client) Do(ctx context.Context, method Method, target string, headers []Header, body []byte, buf *Buffer) (*Response, int, error) {
	if buf == nil || buf.Cap() == 0 {
		return nil, 0, errorf(KindBufferOverflow, "request", "nil or zero-capacity response buffer")
	}
	t, err := ParseTarget(target)
	if err != nil {
		return nil, 0, err
	}
	if t.Secure() && c.handshaker == nil {
		return nil, 0, errorf(KindUnsupportedScheme, "request", "https target but the TLS capability is not compiled in")
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	n, err := writeRequest(c.tx, method, t, headers, body)
	if err != nil {
		return nil, 0, err
	}

	data, gen := buf.borrow()
	resp := &Response{buf: buf, gen: gen}
	e := &exchange{
		client:  c,
		method:  method,
		target:  t,
		request: c.tx[:n],
		buf:     data,
		resp:    resp,
	}
	if err := e.run(ctx); err != nil {
		return nil, 0, err
	}
	return resp, e.n, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodGet, target, headers, nil, buf)
}

// Post performs a POST request with a body.
func (c *Client) Post(ctx context.Context, target string, headers []Header, body []byte, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodPost, target, headers, body, buf)
}

// Put performs a PUT request with a body.
func (c *Client) Put(ctx context.Context, target string, headers []Header, body []byte, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodPut, target, headers, body, buf)
}

// Patch performs a PATCH request with a body.
func (c *Client) Patch(ctx context.Context, target string, headers []Header, body []byte, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodPatch, target, headers, body, buf)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodDelete, target, headers, nil, buf)
}

// Head performs a HEAD request. The response body is always Empty.
func (c *Client) Head(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodHead, target, headers, nil, buf)
}

// Options performs an OPTIONS request.
func (c *Client) Options(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodOptions, target, headers, nil, buf)
}

// Trace performs a TRACE request.
func (c *Client) Trace(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodTrace, target, headers, nil, buf)
}

// Connect performs a CONNECT request.
func (c *Client) Connect(ctx context.Context, target string, headers []Header, buf *Buffer) (*Response, int, error) {
	return c.Do(ctx, MethodConnect, target, headers, nil, buf)
}
