package http1

import (
	"strings"

	"github.com/die-net/proxyget/internal/httperr"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
	MethodPatch   Method = "PATCH"
)

var methods = []Method{
	MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete,
	MethodOptions, MethodTrace, MethodConnect, MethodPatch,
}

// ParseMethod accepts any of the standard methods, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(s))
	for _, known := range methods {
		if m == known {
			return m, nil
		}
	}
	return "", httperr.New(httperr.UnknownMethod, s, nil)
}

func (m Method) String() string { return string(m) }
