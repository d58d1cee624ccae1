// Package http is an HTTP/1.1 client engine for memory-bounded use: it
// serializes requests into a fixed transmit buffer and parses responses
// entirely in place inside a buffer the caller owns, exposing status,
// headers and body as views into that buffer without copying a byte.
//
// The engine opens one single-shot connection per call (no pooling, no
// redirects, no chunked streaming), drives it through an explicit
// resolve/connect/handshake/send/receive state machine bounded by a
// per-call deadline, and retries only transient failures that happen
// before anything was transmitted.
//
// Basic usage:
//
//	client, err := http.NewClient(
//	    http.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := http.NewBuffer(4096)
//	resp, n, err := client.Get(ctx, "http://example.com/api/status", []http.Header{
//	    http.Accept(http.MIMEJSON),
//	    http.UserAgent("riposte/0.1"),
//	}, buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("status %d, %d bytes\n", resp.Status(), n)
//	switch body := resp.Body(); body.Kind() {
//	case http.BodyText:
//	    fmt.Println(body.Text()) // aliases buf, no copy
//	case http.BodyBinary:
//	    fmt.Printf("%d binary bytes\n", body.Len())
//	}
//
// Buffer ownership:
//
// A Response stays valid only until its Buffer is passed into another
// request. The buffer carries a generation counter; view accessors on a
// stale Response panic instead of reading repurposed bytes. Check
// Response.Valid to test without panicking. Give each in-flight call its
// own Buffer.
//
// TLS:
//
// The default build wires a crypto/tls capability; building with the
// riposte_notls tag removes it, and https targets then fail with
// KindUnsupportedScheme. Custom capabilities (transport, resolver, TLS)
// plug in through the Dialer, Resolver and Handshaker interfaces.
package http
