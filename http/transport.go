package http

import (
	"context"
	"io"
	"net"
	"time"
)

// Conn is the byte-stream contract the engine drives. The engine never
// opens sockets itself; it is handed a Conn by a Dialer (optionally
// wrapped by a Handshaker) and only ever reads, writes, sets deadlines
// and closes.
type Conn interface {
	io.ReadWriteCloser

	// SetDeadline bounds all pending and future reads and writes.
	SetDeadline(t time.Time) error
}

// Dialer opens transport connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver translates hostnames to addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Handshaker wraps an already-open transport connection in an encrypted
// session. It is the engine's TLS capability: the default implementation
// is selected at build configuration (see the riposte_notls build tag),
// and a secure-scheme request without any Handshaker fails with
// KindUnsupportedScheme before a connection is attempted.
type Handshaker interface {
	// Handshake performs the TLS handshake over conn for the given server
	// name and returns the encrypted stream. On failure conn is left to
	// the caller to close.
	Handshake(ctx context.Context, conn net.Conn, serverName string) (Conn, error)
}
