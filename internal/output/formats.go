package output

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/riposte/http"
)

// OutputFormat selects how responses are rendered.
type OutputFormat string

const (
	// FormatText is the default human-readable text format.
	FormatText OutputFormat = "text"
	// FormatJSON renders the response as a JSON document.
	FormatJSON OutputFormat = "json"
	// FormatYAML renders the response as a YAML document.
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// TimingData is the structured form of per-phase request timing, in
// milliseconds.
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData is the structured form of a response used by the JSON and
// YAML renderers. Building it copies the response's views into ordinary
// strings, so it stays valid after the receive buffer is reused.
type ResponseData struct {
	StatusCode    int               `json:"statusCode" yaml:"statusCode"`
	Status        string            `json:"status" yaml:"status"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body          any               `json:"body,omitempty" yaml:"body,omitempty"`
	BodyKind      string            `json:"bodyKind" yaml:"bodyKind"`
	ReceivedBytes int               `json:"receivedBytes" yaml:"receivedBytes"`
	Timing        TimingData        `json:"timing" yaml:"timing"`
	Timestamp     string            `json:"timestamp" yaml:"timestamp"`
}

// NewResponseData snapshots a response into owned storage.
func NewResponseData(resp *http.Response, received int) ResponseData {
	timing := resp.Timing()
	data := ResponseData{
		StatusCode:    resp.Status().Int(),
		Status:        statusText(resp),
		BodyKind:      resp.Body().Kind().String(),
		ReceivedBytes: received,
		Timing: TimingData{
			DNSLookup:       timing.DNSLookupTime.Milliseconds(),
			TCPConnection:   timing.TCPConnectTime.Milliseconds(),
			TLSHandshake:    timing.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: timing.TimeToFirstByte.Milliseconds(),
			ContentTransfer: timing.ContentTransferTime.Milliseconds(),
			Total:           timing.TotalTime.Milliseconds(),
		},
		Timestamp: timing.StartTime.Format(time.RFC3339),
	}

	if headers := resp.Headers(); len(headers) > 0 {
		data.Headers = make(map[string]string, len(headers))
		for _, h := range headers {
			data.Headers[h.Name] = h.Value
		}
	}

	switch body := resp.Body(); body.Kind() {
	case http.BodyText:
		text := body.Text()
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			data.Body = parsed
		} else {
			data.Body = text
		}
	case http.BodyBinary:
		data.Body = fmt.Sprintf("<%d binary bytes>", body.Len())
	}

	return data
}

// RenderResponse renders a response in the requested format.
func RenderResponse(format OutputFormat, resp *http.Response, received int, verbose, noColor bool) (string, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(NewResponseData(resp, received), "", "  ")
		if err != nil {
			return "", err
		}
		return string(out) + "\n", nil
	case FormatYAML:
		out, err := yaml.Marshal(NewResponseData(resp, received))
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return NewFormatter(verbose, noColor).FormatResponse(resp, received), nil
	}
}
