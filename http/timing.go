package http

import "time"

// TimingInfo stores per-phase timing for one call. All durations represent
// the time spent in each phase of the request.
type TimingInfo struct {
	// StartTime is when the call started.
	StartTime time.Time

	// DNSLookupTime is the time spent resolving the target hostname.
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing the transport
	// connection.
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent in the TLS handshake (zero for
	// plaintext calls).
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is the time from the end of the last setup phase to
	// the first response byte.
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent receiving the response after
	// the first byte.
	ContentTransferTime time.Duration

	// TotalTime is the time from call start to completion.
	TotalTime time.Duration
}
