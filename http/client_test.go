package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveOnce listens on a loopback port, accepts a single connection,
// captures the full request and writes the canned response before
// closing. It returns the http:// base URL and a channel delivering the
// captured request.
func serveOnce(t *testing.T, response string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))
		got <- readFullRequest(conn)
		if response != "" {
			io.WriteString(conn, response)
		}
	}()
	return "http://" + ln.Addr().String(), got
}

// readFullRequest reads one request off conn: the header section plus,
// when Content-Length declares one, the body.
func readFullRequest(conn net.Conn) string {
	var buf []byte
	tmp := make([]byte, 1024)
	for headerSectionEnd(buf) < 0 {
		n, err := conn.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			return string(buf)
		}
	}
	end := headerSectionEnd(buf)
	want := end
	for _, line := range strings.Split(string(buf[:end]), "\r\n") {
		if i := strings.IndexByte(line, ':'); i > 0 &&
			strings.EqualFold(line[:i], HeaderContentLength) {
			if n, err := strconv.Atoi(strings.TrimSpace(line[i+1:])); err == nil {
				want += n
			}
		}
	}
	for len(buf) < want {
		n, err := conn.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	return string(buf)
}

func newTestClient(t *testing.T, options ...ClientOption) *Client {
	t.Helper()
	options = append([]ClientOption{
		WithTimeout(5 * time.Second),
		WithRetry(RetryPolicy{MaxAttempts: 1}),
	}, options...)
	c, err := NewClient(options...)
	require.NoError(t, err)
	return c
}

func TestClientGetJSON(t *testing.T) {
	body := `{"ok":true}`
	url, got := serveOnce(t, fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		len(body), body))

	c := newTestClient(t)
	buf := NewBuffer(4096)
	resp, n, err := c.Get(context.Background(), url+"/things?limit=2", nil, buf)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, resp.Status())
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "HTTP/1.1", resp.Proto())
	assert.Equal(t, "OK", resp.Reason())
	assert.Equal(t, MIMEJSON, resp.ContentType())
	assert.Equal(t, len(body), resp.ContentLength())
	assert.Equal(t, BodyText, resp.Body().Kind())
	assert.Equal(t, body, resp.Body().Text())
	assert.Positive(t, n)
	assert.Positive(t, resp.Timing().TotalTime)

	req := <-got
	assert.True(t, strings.HasPrefix(req, "GET /things?limit=2 HTTP/1.1\r\n"), "request line in %q", req)
	assert.Contains(t, req, "\r\nHost: 127.0.0.1:")
	assert.Contains(t, req, "\r\nConnection: close\r\n")
}

func TestClientPostSendsBody(t *testing.T) {
	url, got := serveOnce(t, "HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n")

	c := newTestClient(t)
	resp, _, err := c.Post(context.Background(), url+"/items",
		[]Header{ContentType(MIMEJSON)}, []byte(`{"name":"x"}`), NewBuffer(1024))
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, resp.Status())
	assert.True(t, resp.Body().IsEmpty())

	req := <-got
	assert.True(t, strings.HasPrefix(req, "POST /items HTTP/1.1\r\n"))
	assert.Contains(t, req, "\r\nContent-Type: application/json\r\n")
	assert.Contains(t, req, "\r\nContent-Length: 12\r\n")
	assert.True(t, strings.HasSuffix(req, "\r\n\r\n"+`{"name":"x"}`))
}

func TestClientExactFitAndOverflow(t *testing.T) {
	body := strings.Repeat("a", 100)
	response := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)

	t.Run("exact fit succeeds", func(t *testing.T) {
		url, _ := serveOnce(t, response)
		c := newTestClient(t)
		resp, n, err := c.Get(context.Background(), url+"/", nil, NewBuffer(len(response)))
		require.NoError(t, err)
		assert.Equal(t, len(response), n)
		assert.Equal(t, body, resp.Body().Text())
	})

	t.Run("one byte short overflows", func(t *testing.T) {
		url, _ := serveOnce(t, response)
		c := newTestClient(t)
		resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(len(response)-1))
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, KindBufferOverflow, KindOf(err))
	})
}

func TestClientSmallBufferLargeBody(t *testing.T) {
	// A 2000-byte body fits the default receive window but not a small
	// caller buffer.
	body := strings.Repeat("b", 2000)
	response := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)

	t.Run("1k buffer overflows", func(t *testing.T) {
		url, _ := serveOnce(t, response)
		c := newTestClient(t, WithBufferSizes(SmallBufferSizes()))
		_, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
		require.Error(t, err)
		assert.Equal(t, KindBufferOverflow, KindOf(err))
	})

	t.Run("4k buffer holds it", func(t *testing.T) {
		url, _ := serveOnce(t, response)
		c := newTestClient(t)
		resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(4096))
		require.NoError(t, err)
		assert.Equal(t, 2000, resp.Body().Len())
		assert.Equal(t, BodyText, resp.Body().Kind())
	})
}

func TestClientHeadHasEmptyBody(t *testing.T) {
	url, got := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 512\r\n\r\n")

	c := newTestClient(t)
	resp, _, err := c.Head(context.Background(), url+"/page", nil, NewBuffer(1024))
	require.NoError(t, err)
	assert.True(t, resp.Body().IsEmpty())
	assert.Equal(t, 512, resp.ContentLength())
	assert.True(t, strings.HasPrefix(<-got, "HEAD /page HTTP/1.1\r\n"))
}

func TestClientNoContentStatus(t *testing.T) {
	url, _ := serveOnce(t, "HTTP/1.1 204 No Content\r\n\r\n")

	c := newTestClient(t)
	resp, _, err := c.Delete(context.Background(), url+"/items/7", nil, NewBuffer(1024))
	require.NoError(t, err)
	assert.Equal(t, StatusNoContent, resp.Status())
	assert.True(t, resp.Body().IsEmpty())
}

func TestClientBodyToConnectionClose(t *testing.T) {
	// No Content-Length: the body runs until the server closes.
	url, _ := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nstreamed until close")

	c := newTestClient(t)
	resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.NoError(t, err)
	assert.Equal(t, -1, resp.ContentLength())
	assert.Equal(t, "streamed until close", resp.Body().Text())
}

func TestClientNoResponse(t *testing.T) {
	url, _ := serveOnce(t, "")

	c := newTestClient(t)
	resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, KindTransportRead, KindOf(err))
}

func TestClientMalformedStatusLine(t *testing.T) {
	url, _ := serveOnce(t, "ICY 200 OK\r\n\r\n")

	c := newTestClient(t)
	_, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestClientTruncatedBody(t *testing.T) {
	url, _ := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Length: 50\r\n\r\nonly ten b")

	c := newTestClient(t)
	_, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestClientTimeoutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readFullRequest(conn)
		<-done // never respond
	}()

	c := newTestClient(t, WithTimeout(150*time.Millisecond))
	start := time.Now()
	resp, _, err := c.Get(context.Background(), "http://"+ln.Addr().String()+"/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, time.Since(start), 3*time.Second)
}

// countingDialer fails the first failures dials, then delegates to a
// real dialer.
type countingDialer struct {
	dials    atomic.Int32
	failures int32
	inner    net.Dialer
}

func (d *countingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	n := d.dials.Add(1)
	if n <= d.failures {
		return nil, fmt.Errorf("dial %s: simulated refusal %d", address, n)
	}
	return d.inner.DialContext(ctx, network, address)
}

func TestClientRetriesTransientDialFailure(t *testing.T) {
	url, _ := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")

	dialer := &countingDialer{failures: 2}
	c := newTestClient(t,
		WithDialer(dialer),
		WithRetry(RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}),
	)
	resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status())
	assert.Equal(t, int32(3), dialer.dials.Load())
}

func TestClientRetryBudgetExhausted(t *testing.T) {
	dialer := &countingDialer{failures: 99}
	c := newTestClient(t,
		WithDialer(dialer),
		WithRetry(RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}),
	)
	_, _, err := c.Get(context.Background(), "http://127.0.0.1:1/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindConnectionFailed, KindOf(err))
	assert.Equal(t, int32(3), dialer.dials.Load())
}

// failingResolver always fails, counting attempts.
type failingResolver struct {
	lookups atomic.Int32
}

func (r *failingResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	r.lookups.Add(1)
	return nil, fmt.Errorf("lookup %s: simulated failure", host)
}

func TestClientRetriesDNSFailure(t *testing.T) {
	resolver := &failingResolver{}
	c := newTestClient(t,
		WithResolver(resolver),
		WithRetry(RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}),
	)
	_, _, err := c.Get(context.Background(), "http://nowhere.invalid/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindDNSResolution, KindOf(err))
	assert.Equal(t, int32(3), resolver.lookups.Load())
}

// scriptConn is an in-memory net.Conn that accepts writes and fails the
// first read with a deadline error, simulating a server that goes dark
// after the request is on the wire.
type scriptConn struct{}

func (scriptConn) Read(p []byte) (int, error)         { return 0, os.ErrDeadlineExceeded }
func (scriptConn) Write(p []byte) (int, error)        { return len(p), nil }
func (scriptConn) Close() error                       { return nil }
func (scriptConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (scriptConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (scriptConn) SetDeadline(t time.Time) error      { return nil }
func (scriptConn) SetReadDeadline(t time.Time) error  { return nil }
func (scriptConn) SetWriteDeadline(t time.Time) error { return nil }

type scriptDialer struct {
	dials atomic.Int32
}

func (d *scriptDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials.Add(1)
	return scriptConn{}, nil
}

func TestClientNeverRetriesAfterWrite(t *testing.T) {
	dialer := &scriptDialer{}
	c := newTestClient(t,
		WithDialer(dialer),
		WithRetry(RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}),
	)
	_, _, err := c.Get(context.Background(), "http://127.0.0.1:80/", nil, NewBuffer(1024))
	require.Error(t, err)
	// The deadline error surfaces as a timeout, which would be transient
	// before the connection; after bytes are written it must not retry.
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, int32(1), dialer.dials.Load())
}

// deadlineFailConn dials fine but refuses to arm its deadline.
type deadlineFailConn struct{ scriptConn }

func (deadlineFailConn) SetDeadline(t time.Time) error {
	return errors.New("deadline not supported")
}

type deadlineFailDialer struct{}

func (deadlineFailDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return deadlineFailConn{}, nil
}

func TestClientSurfacesDeadlineArmFailure(t *testing.T) {
	c := newTestClient(t, WithDialer(deadlineFailDialer{}))
	_, _, err := c.Get(context.Background(), "http://127.0.0.1:80/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindConnectionFailed, KindOf(err))
}

func TestClientBufferReuseInvalidatesResponse(t *testing.T) {
	url1, _ := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nfirst")
	url2, _ := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 6\r\n\r\nsecond")

	c := newTestClient(t)
	buf := NewBuffer(1024)

	resp1, _, err := c.Get(context.Background(), url1+"/", nil, buf)
	require.NoError(t, err)
	assert.True(t, resp1.Valid())
	assert.Equal(t, "first", resp1.Body().Text())

	resp2, _, err := c.Get(context.Background(), url2+"/", nil, buf)
	require.NoError(t, err)

	assert.False(t, resp1.Valid())
	assert.Panics(t, func() { resp1.Body() })
	assert.Panics(t, func() { resp1.Headers() })
	assert.Equal(t, "second", resp2.Body().Text())
}

func TestClientSecureWithoutHandshaker(t *testing.T) {
	dialer := &scriptDialer{}
	c := newTestClient(t, WithDialer(dialer), WithHandshaker(nil))
	_, _, err := c.Get(context.Background(), "https://example.com/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedScheme, KindOf(err))
	assert.Equal(t, int32(0), dialer.dials.Load(), "must fail before any connection attempt")
}

// passthroughHandshaker hands the plaintext connection straight back,
// letting the secure code path run against a plain test server.
type passthroughHandshaker struct {
	calls atomic.Int32
}

func (h *passthroughHandshaker) Handshake(ctx context.Context, conn net.Conn, serverName string) (Conn, error) {
	h.calls.Add(1)
	return conn, nil
}

func TestClientSecurePath(t *testing.T) {
	body := `{"secure":true}`
	response := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)
	url, _ := serveOnce(t, response)
	addr := strings.TrimPrefix(url, "http://")

	hs := &passthroughHandshaker{}
	c := newTestClient(t, WithHandshaker(hs))
	resp, _, err := c.Get(context.Background(), "https://"+addr+"/", nil, NewBuffer(1024))
	require.NoError(t, err)
	assert.Equal(t, body, resp.Body().Text())
	assert.Equal(t, int32(1), hs.calls.Load())
}

func TestClientRequestTooLargeForTransmitBuffer(t *testing.T) {
	sizes := DefaultBufferSizes()
	sizes.Transmit = 64
	c := newTestClient(t, WithBufferSizes(sizes))
	big := strings.Repeat("x", 128)
	_, _, err := c.Post(context.Background(), "http://example.com/", nil, []byte(big), NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindBufferOverflow, KindOf(err))
}

func TestClientNilBuffer(t *testing.T) {
	c := newTestClient(t)
	_, _, err := c.Get(context.Background(), "http://example.com/", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindBufferOverflow, KindOf(err))

	_, _, err = c.Get(context.Background(), "http://example.com/", nil, WrapBuffer(nil))
	require.Error(t, err)
	assert.Equal(t, KindBufferOverflow, KindOf(err))
}

func TestClientContextCancellation(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readFullRequest(conn)
		<-done
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := newTestClient(t)
	_, _, err = c.Get(ctx, "http://"+ln.Addr().String()+"/", nil, NewBuffer(1024))
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestNewClientRejectsBadSizes(t *testing.T) {
	_, err := NewClient(WithBufferSizes(BufferSizes{Receive: 0, Transmit: 1024, TLSReadRecord: 1, TLSWriteRecord: 1}))
	require.Error(t, err)
}

func TestClientTimingPhases(t *testing.T) {
	body := "ok"
	url, _ := serveOnce(t, fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(body), body))

	c := newTestClient(t)
	resp, _, err := c.Get(context.Background(), url+"/", nil, NewBuffer(1024))
	require.NoError(t, err)

	timing := resp.Timing()
	assert.False(t, timing.StartTime.IsZero())
	assert.Positive(t, timing.TCPConnectTime)
	assert.Positive(t, timing.TimeToFirstByte)
	assert.Positive(t, timing.TotalTime)
	assert.GreaterOrEqual(t, timing.TotalTime, timing.TimeToFirstByte)
}
