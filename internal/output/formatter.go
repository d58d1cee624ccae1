package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/wesleyorama2/riposte/http"
)

// Formatter renders requests and responses as human-readable text.
type Formatter struct {
	Verbose bool
	NoColor bool
}

// NewFormatter creates a formatter with the given options.
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
	}
}

// FormatRequest formats an outgoing request for display.
func (f *Formatter) FormatRequest(method http.Method, url string, headers []http.Header, body []byte) string {
	var buf strings.Builder

	methodColor := color.New(color.FgBlue, color.Bold)
	if f.NoColor {
		methodColor.DisableColor()
	}

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n", methodColor.Sprint(method.String()), url))

	if f.Verbose && len(headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, h := range headers {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", h.Name, h.Value))
		}
	}

	if body != nil {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(string(body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a parsed response for display. The response's
// views are read here, so the caller must not reuse its buffer until the
// formatted string has been built.
func (f *Formatter) FormatResponse(resp *http.Response, received int) string {
	var buf strings.Builder

	statusColor := color.New(color.Bold)
	switch {
	case resp.IsSuccess():
		statusColor.Add(color.FgGreen)
	case resp.IsRedirect():
		statusColor.Add(color.FgYellow)
	default:
		statusColor.Add(color.FgRed)
	}
	if f.NoColor {
		statusColor.DisableColor()
	}

	timing := resp.Timing()
	status := fmt.Sprintf("%d %s", resp.Status().Int(), statusText(resp))
	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms, %d bytes)\n",
		statusColor.Sprint(status), timing.TotalTime.Milliseconds(), received))

	if f.Verbose {
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", timing.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", timing.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", timing.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", timing.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", timing.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", timing.TotalTime.Milliseconds()))

		if headers := resp.Headers(); len(headers) > 0 {
			buf.WriteString("  Headers:\n")
			for _, h := range headers {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", h.Name, h.Value))
			}
		}
	}

	body := resp.Body()
	switch body.Kind() {
	case http.BodyText:
		buf.WriteString("  Body:\n")
		buf.WriteString(indent(formatJSONString(body.Text()), "    "))
		buf.WriteString("\n")
	case http.BodyBinary:
		buf.WriteString(fmt.Sprintf("  Body: <%d bytes of %s>\n", body.Len(), resp.ContentType()))
	}

	return buf.String()
}

// FormatError formats a request failure for display.
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("%s %v\n", ErrorIcon(f.NoColor), err)
}

// statusText returns the response's own reason phrase, falling back to
// the canonical one when the server sent none.
func statusText(resp *http.Response) string {
	if reason := resp.Reason(); reason != "" {
		return reason
	}
	return resp.Status().Text()
}

// formatJSONString re-indents s when it is valid JSON, and returns it
// unchanged otherwise.
func formatJSONString(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
