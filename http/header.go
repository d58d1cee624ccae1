package http

import "strings"

// Well-known header names.
const (
	HeaderAccept           = "Accept"
	HeaderAcceptEncoding   = "Accept-Encoding"
	HeaderAuthorization    = "Authorization"
	HeaderCacheControl     = "Cache-Control"
	HeaderConnection       = "Connection"
	HeaderContentLength    = "Content-Length"
	HeaderContentType      = "Content-Type"
	HeaderHost             = "Host"
	HeaderLocation         = "Location"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderUserAgent        = "User-Agent"
	HeaderAPIKey           = "X-Api-Key"
)

// Well-known MIME types.
const (
	MIMEJSON        = "application/json"
	MIMEXML         = "application/xml"
	MIMEForm        = "application/x-www-form-urlencoded"
	MIMEOctetStream = "application/octet-stream"
	MIMEHTML        = "text/html"
	MIMEText        = "text/plain"
)

// Header is a single HTTP header as a name/value pair. A Header does not own
// the bytes it points at: request headers reference caller strings, and
// response headers reference the response buffer directly.
//
// Headers travel as ordered sequences. Nothing de-duplicates names; lookup is
// a linear, case-insensitive scan over the sequence.
type Header struct {
	Name  string
	Value string
}

// NewHeader creates a header from a name and value.
func NewHeader(name, value string) Header {
	return Header{Name: name, Value: value}
}

// ContentType creates a Content-Type header.
//
// Example:
//
//	h := http.ContentType(http.MIMEJSON)
func ContentType(value string) Header {
	return Header{Name: HeaderContentType, Value: value}
}

// Authorization creates an Authorization header with the full credential
// value, e.g. "Bearer token123" or "Basic dXNlcjpwYXNz".
func Authorization(value string) Header {
	return Header{Name: HeaderAuthorization, Value: value}
}

// UserAgent creates a User-Agent header.
func UserAgent(value string) Header {
	return Header{Name: HeaderUserAgent, Value: value}
}

// Accept creates an Accept header.
func Accept(value string) Header {
	return Header{Name: HeaderAccept, Value: value}
}

// APIKey creates an X-Api-Key header.
func APIKey(value string) Header {
	return Header{Name: HeaderAPIKey, Value: value}
}

// headerValue returns the first value for name in an ordered header
// sequence. Name comparison is case-insensitive.
func headerValue(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
