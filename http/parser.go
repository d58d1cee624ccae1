package http

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// headerSectionEnd returns the index just past the blank line terminating
// the header section, or -1 while the section is still incomplete. This is
// the parser's resumable not-yet-failure state: the connection keeps
// feeding bytes until the section closes or a limit is hit.
func headerSectionEnd(b []byte) int {
	i := bytes.Index(b, crlfcrlf)
	if i < 0 {
		return -1
	}
	return i + len(crlfcrlf)
}

// parseHeaders parses a complete header section (status line through the
// terminating blank line) in place. section must end with CRLF CRLF. All
// name, value and reason views alias section's backing storage; no bytes
// are moved or copied.
func (r *Response) parseHeaders(section []byte) error {
	lines := section[:len(section)-len(crlfcrlf)]

	statusLine := lines
	rest := []byte(nil)
	if i := bytes.Index(lines, crlf); i >= 0 {
		statusLine = lines[:i]
		rest = lines[i+len(crlf):]
	}
	if err := r.parseStatusLine(statusLine); err != nil {
		return err
	}

	for len(rest) > 0 {
		line := rest
		if i := bytes.Index(rest, crlf); i >= 0 {
			line = rest[:i]
			rest = rest[i+len(crlf):]
		} else {
			rest = nil
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return errorf(KindMalformedResponse, "parse headers", "header line without a colon")
		}
		name := trimOWS(line[:colon])
		value := trimOWS(line[colon+1:])
		if len(name) == 0 {
			return errorf(KindMalformedResponse, "parse headers", "empty header name")
		}
		if r.nheaders == maxResponseHeaders {
			return errorf(KindBufferOverflow, "parse headers", "more than %d response headers", maxResponseHeaders)
		}
		r.headers[r.nheaders] = Header{Name: weakString(name), Value: weakString(value)}
		r.nheaders++
	}
	return nil
}

// parseStatusLine parses `HTTP/1.x SP code [SP reason]`. An empty reason
// phrase is legal; a non-numeric or out-of-range status token is not.
func (r *Response) parseStatusLine(line []byte) error {
	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return errorf(KindMalformedResponse, "parse status line", "no status token")
	}
	proto := line[:sp]
	if len(proto) != len("HTTP/1.x") || !bytes.HasPrefix(proto, []byte("HTTP/1.")) ||
		proto[7] < '0' || proto[7] > '9' {
		return errorf(KindMalformedResponse, "parse status line", "bad protocol %q", proto)
	}

	rest := line[sp+1:]
	codeTok := rest
	reason := []byte(nil)
	if i := bytes.IndexByte(rest, ' '); i >= 0 {
		codeTok = rest[:i]
		reason = rest[i+1:]
	}
	code, ok := parseStatusCode(codeTok)
	if !ok {
		return errorf(KindMalformedResponse, "parse status line", "bad status %q", codeTok)
	}

	r.status = code
	r.proto = weakString(proto)
	r.reason = weakString(reason)
	return nil
}

// declaredBodyLength returns the body length the headers declare, or -1
// when the body runs to connection close. forceEmpty wins over any header:
// HEAD responses and 1xx/204/304 statuses carry no body.
func (r *Response) declaredBodyLength(method Method) (int, error) {
	if method == MethodHead || r.status.IsInformational() ||
		r.status == StatusNoContent || r.status == StatusNotModified {
		return 0, nil
	}
	v, ok := headerValue(r.headers[:r.nheaders], HeaderContentLength)
	if !ok {
		return -1, nil
	}
	n, ok := parseContentLength(v)
	if !ok {
		return 0, errorf(KindMalformedResponse, "parse headers", "bad Content-Length %q", v)
	}
	return n, nil
}

func parseContentLength(s string) (int, bool) {
	if s == "" || len(s) > 10 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// classifyBody classifies body bytes per the declared Content-Type: Text
// for text-like media with valid UTF-8 payloads, Binary otherwise, Empty
// when no bytes exist. With no declared type, valid UTF-8 is treated as
// text. Both non-empty variants alias data.
func classifyBody(contentType string, data []byte) Body {
	if len(data) == 0 {
		return Body{kind: BodyEmpty}
	}
	if contentType == "" {
		if utf8.Valid(data) {
			return Body{kind: BodyText, data: data}
		}
		return Body{kind: BodyBinary, data: data}
	}
	if isTextContentType(contentType) && utf8.Valid(data) {
		return Body{kind: BodyText, data: data}
	}
	return Body{kind: BodyBinary, data: data}
}

// isTextContentType reports whether the media type is text-like: text/*,
// JSON, XML, form encoding, or a +json/+xml structured suffix.
func isTextContentType(contentType string) bool {
	mt := contentType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimRight(strings.TrimLeft(mt, " \t"), " \t")
	return hasPrefixFold(mt, "text/") ||
		strings.EqualFold(mt, MIMEJSON) ||
		strings.EqualFold(mt, MIMEXML) ||
		strings.EqualFold(mt, MIMEForm) ||
		hasSuffixFold(mt, "+json") ||
		hasSuffixFold(mt, "+xml")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// trimOWS trims optional whitespace (space and horizontal tab) from both
// ends of a header field element.
func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
