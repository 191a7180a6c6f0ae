package http1

import (
	"strconv"
	"strings"

	"github.com/die-net/proxyget/internal/httperr"
)

// Version is an HTTP protocol version.
type Version uint8

const (
	HTTP09 Version = iota
	HTTP10
	HTTP11
)

// ParseVersion accepts HTTP/0.9, HTTP/1.0 and HTTP/1.1, ignoring case.
func ParseVersion(s string) (Version, error) {
	switch strings.ToUpper(s) {
	case "HTTP/0.9":
		return HTTP09, nil
	case "HTTP/1.0":
		return HTTP10, nil
	case "HTTP/1.1":
		return HTTP11, nil
	default:
		return 0, httperr.New(httperr.UnsupportedVersion, s, nil)
	}
}

func (v Version) String() string {
	switch v {
	case HTTP09:
		return "HTTP/0.9"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return "Version(" + strconv.Itoa(int(v)) + ")"
	}
}
