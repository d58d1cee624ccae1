package http

import "strings"

// Target is the parsed form of a request URL: scheme, host, port and
// path+query. Its fields are substrings of the input and are never
// re-encoded.
type Target struct {
	Scheme string
	Host   string
	Port   int
	// Path is the origin-form request target including any query string.
	// Always non-empty, always starting with '/'.
	Path string
}

// ParseTarget parses an absolute http or https URL. The host may be a
// DNS name, an IPv4 literal, or a bracketed IPv6 literal; brackets are
// stripped from Host. Fragments are not stripped; callers should not
// include them.
func ParseTarget(raw string) (Target, error) {
	var t Target
	if hasForbiddenByte(raw) {
		return t, errorf(KindInvalidTarget, "parse target", "control byte in %q", raw)
	}
	var rest string
	switch {
	case strings.HasPrefix(raw, "http://"):
		t.Scheme, t.Port = "http", 80
		rest = raw[len("http://"):]
	case strings.HasPrefix(raw, "https://"):
		t.Scheme, t.Port = "https", 443
		rest = raw[len("https://"):]
	default:
		if i := strings.Index(raw, "://"); i >= 0 {
			return t, errorf(KindUnsupportedScheme, "parse target", "scheme %q", raw[:i])
		}
		return t, errorf(KindInvalidTarget, "parse target", "missing scheme in %q", raw)
	}

	hostport := rest
	t.Path = "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		hostport = rest[:i]
		t.Path = rest[i:]
	}
	if hostport == "" {
		return t, errorf(KindInvalidTarget, "parse target", "missing host in %q", raw)
	}

	if hostport[0] == '[' {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return t, errorf(KindInvalidTarget, "parse target", "unclosed bracket in %q", raw)
		}
		t.Host = hostport[1:end]
		if t.Host == "" {
			return t, errorf(KindInvalidTarget, "parse target", "missing host in %q", raw)
		}
		if after := hostport[end+1:]; after != "" {
			if after[0] != ':' {
				return t, errorf(KindInvalidTarget, "parse target", "bad host in %q", raw)
			}
			port, ok := parsePort(after[1:])
			if !ok {
				return t, errorf(KindInvalidTarget, "parse target", "bad port in %q", raw)
			}
			t.Port = port
		}
		return t, nil
	}

	t.Host = hostport
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		port, ok := parsePort(hostport[i+1:])
		if !ok {
			return t, errorf(KindInvalidTarget, "parse target", "bad port in %q", raw)
		}
		t.Host = hostport[:i]
		t.Port = port
		if t.Host == "" {
			return t, errorf(KindInvalidTarget, "parse target", "missing host in %q", raw)
		}
	}
	return t, nil
}

// Secure reports whether the target demands TLS.
func (t Target) Secure() bool { return t.Scheme == "https" }

// defaultPort reports whether the port is the scheme default, in which
// case the Host header omits it.
func (t Target) defaultPort() bool {
	if t.Scheme == "https" {
		return t.Port == 443
	}
	return t.Port == 80
}

func parsePort(s string) (int, bool) {
	if s == "" || len(s) > 5 {
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
	if n == 0 || n > 65535 {
		return 0, false
	}
	return n, true
}
