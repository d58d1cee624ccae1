package http

// Method is an HTTP request method.
type Method string

// Standard HTTP/1.1 methods.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

// String returns the wire representation of the method.
func (m Method) String() string { return string(m) }

// IsValid reports whether m is one of the nine standard methods.
func (m Method) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch,
		MethodHead, MethodOptions, MethodTrace, MethodConnect:
		return true
	}
	return false
}

// Idempotent reports whether requests with this method are safe to retry
// after a transport failure. Methods with side effects (POST, PATCH,
// CONNECT) are not.
func (m Method) Idempotent() bool {
	switch m {
	case MethodGet, MethodHead, MethodPut, MethodDelete, MethodOptions, MethodTrace:
		return true
	}
	return false
}
