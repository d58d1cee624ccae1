//go:build !riposte_notls

package http

import (
	"context"
	"crypto/tls"
	"net"
)

// stdHandshaker is the default TLS capability, built on crypto/tls.
type stdHandshaker struct {
	config *tls.Config
}

func (h stdHandshaker) Handshake(ctx context.Context, conn net.Conn, serverName string) (Conn, error) {
	cfg := h.config
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = serverName
	}
	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, newError(KindTLS, "handshake", err)
	}
	return tc, nil
}

// defaultHandshaker returns the TLS capability compiled into this build.
func defaultHandshaker() Handshaker { return stdHandshaker{} }

// WithTLSConfig sets the TLS configuration used for https targets. Only
// available in builds carrying the TLS capability.
func WithTLSConfig(config *tls.Config) ClientOption {
	return func(c *Client) {
		c.handshaker = stdHandshaker{config: config}
	}
}
