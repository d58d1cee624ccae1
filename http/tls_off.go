//go:build riposte_notls

package http

// defaultHandshaker returns nil: this build carries no TLS capability, so
// https targets are rejected with KindUnsupportedScheme before any
// connection is attempted. There is no plaintext fallback.
func defaultHandshaker() Handshaker { return nil }
