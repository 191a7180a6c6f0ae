package uri

import (
	"strconv"
	"strings"

	"github.com/die-net/proxyget/internal/addr"
	"github.com/die-net/proxyget/internal/httperr"
)

// Authority is the [userinfo@]host[:port] part of a URI. Its ranges index
// the owning URI's buffer.
type Authority struct {
	buf      string
	whole    RangeIndex
	username optRange
	password optRange
	host     RangeIndex
	port     optRange
	portNum  uint16
}

// ParseAuthority parses a bare "[user[:pass]@]host[:port]" string.
func ParseAuthority(s string) (*Authority, error) {
	return parseAuthority(s, RangeIndex{Start: 0, End: len(s)})
}

func parseAuthority(buf string, r RangeIndex) (*Authority, error) {
	a := &Authority{buf: buf, whole: r}

	hostPart := some(r)
	if strings.Contains(r.In(buf), "@") {
		var info optRange
		info, hostPart = splitAt(buf, hostPart, "@", splitMode{})
		a.username, a.password = splitAt(buf, info, ":", splitMode{})
	}
	if !hostPart.ok {
		return nil, httperr.New(httperr.ParseHost, r.In(buf), nil)
	}

	var host, port optRange
	if hp := hostPart.In(buf); strings.Contains(hp, "[") && strings.Contains(hp, "]") {
		host, port = splitAt(buf, hostPart, "]:", splitMode{})
	} else {
		host, port = splitAt(buf, hostPart, ":", splitMode{last: true})
	}
	if !host.ok {
		return nil, httperr.New(httperr.ParseHost, r.In(buf), nil)
	}
	a.host = host.RangeIndex

	if h := a.Host(); strings.HasPrefix(h, "[") {
		if _, err := addr.Classify(h); err != nil {
			return nil, httperr.New(httperr.ParseIPv6, h, nil)
		}
	}

	if port.ok {
		n, err := strconv.ParseUint(port.In(buf), 10, 16)
		if err != nil {
			return nil, httperr.New(httperr.ParsePort, port.In(buf), err)
		}
		a.port = port
		a.portNum = uint16(n)
	}
	return a, nil
}

func (a *Authority) Host() string { return a.host.In(a.buf) }

func (a *Authority) Port() (uint16, bool) { return a.portNum, a.port.ok }

// PortString returns the port exactly as written.
func (a *Authority) PortString() (string, bool) { return a.port.in(a.buf) }

func (a *Authority) Username() (string, bool) { return a.username.in(a.buf) }

func (a *Authority) Password() (string, bool) { return a.password.in(a.buf) }

// UserInfo returns the userinfo without the trailing '@'.
func (a *Authority) UserInfo() (string, bool) {
	switch {
	case a.username.ok && a.password.ok:
		return a.buf[a.username.Start:a.password.End], true
	case a.username.ok:
		return a.username.In(a.buf), true
	case a.password.ok:
		return a.buf[a.whole.Start:a.password.End], true
	default:
		return "", false
	}
}

// String returns the authority as written.
func (a *Authority) String() string { return a.whole.In(a.buf) }
