package uri

import (
	"net"
	"strconv"
	"strings"
	"unicode"

	"github.com/die-net/proxyget/internal/addr"
	"github.com/die-net/proxyget/internal/httperr"
)

// Schemes the rest of proxyget dispatches on.
const (
	SchemeHTTP    = "http"
	SchemeHTTPS   = "https"
	SchemeSOCKS5  = "socks5"
	SchemeSOCKS5H = "socks5h"
)

const (
	httpPort   uint16 = 80
	httpsPort  uint16 = 443
	socks5Port uint16 = 1080
)

// DefaultPort returns the conventional port for scheme, falling back to the
// HTTP port for schemes it does not know.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTPS:
		return httpsPort
	case SchemeSOCKS5, SchemeSOCKS5H:
		return socks5Port
	default:
		return httpPort
	}
}

// URI is a parsed URI. It owns a single normalized buffer (whitespace
// removed, scheme lower-cased) and records every component as a RangeIndex
// into it. A URI is immutable once parsed and safe to share.
type URI struct {
	buf       string
	scheme    RangeIndex
	authority *Authority
	path      optRange
	query     optRange
	fragment  optRange
}

// Parse parses raw into a URI. A scheme is mandatory.
func Parse(raw string) (*URI, error) {
	s := stripSpace(raw)
	whole := some(RangeIndex{Start: 0, End: len(s)})

	part, fragment := splitAt(s, whole, "#", splitMode{allowEmpty: true})
	part, query := splitAt(s, part, "?", splitMode{allowEmpty: true})

	if !part.ok || !strings.Contains(part.In(s), ":") {
		return nil, httperr.New(httperr.EmptyScheme, raw, nil)
	}
	scheme, rest := splitAt(s, part, ":", splitMode{})
	if !scheme.ok || !isAlnum(scheme.In(s)) {
		return nil, httperr.New(httperr.EmptyScheme, raw, nil)
	}
	s = lowerInPlace(s, scheme.RangeIndex)

	if !rest.ok {
		return nil, httperr.New(httperr.EmptyAuthority, raw, nil)
	}

	var auth, path optRange
	if strings.HasPrefix(rest.In(s), "//") {
		inner := some(RangeIndex{Start: rest.Start + 2, End: rest.End})
		auth, path = splitAt(s, inner, "/", splitMode{keepSep: true})
		if !auth.ok {
			return nil, httperr.New(httperr.EmptyAuthority, raw, nil)
		}
	} else {
		auth, path = splitAt(s, rest, "/", splitMode{keepSep: true})
	}

	u := &URI{
		buf:      s,
		scheme:   scheme.RangeIndex,
		path:     path,
		query:    query,
		fragment: fragment,
	}
	if auth.ok {
		a, err := parseAuthority(s, auth.RangeIndex)
		if err != nil {
			return nil, err
		}
		u.authority = a
	}
	return u, nil
}

// MustParse is like Parse but panics on error. It is meant for constants.
func MustParse(raw string) *URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func stripSpace(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return s != ""
}

// lowerInPlace lower-cases the ASCII text covered by r. The length of s
// does not change, so every range computed so far stays valid.
func lowerInPlace(s string, r RangeIndex) string {
	seg := r.In(s)
	lower := strings.ToLower(seg)
	if lower == seg {
		return s
	}
	return s[:r.Start] + lower + s[r.End:]
}

// Scheme returns the lower-cased scheme.
func (u *URI) Scheme() string { return u.scheme.In(u.buf) }

// Authority returns the authority, or nil when the URI has none.
func (u *URI) Authority() *Authority { return u.authority }

// Host returns the host as written, including brackets around an IPv6
// literal, or "" when there is no authority.
func (u *URI) Host() string {
	if u.authority == nil {
		return ""
	}
	return u.authority.Host()
}

// Hostname returns Host without IPv6 brackets.
func (u *URI) Hostname() string {
	h := u.Host()
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		return h[1 : len(h)-1]
	}
	return h
}

// Port returns the explicit port.
func (u *URI) Port() (uint16, bool) {
	if u.authority == nil {
		return 0, false
	}
	return u.authority.Port()
}

// EffectivePort returns the explicit port or the scheme's default.
func (u *URI) EffectivePort() uint16 {
	if p, ok := u.Port(); ok {
		return p
	}
	return DefaultPort(u.Scheme())
}

// HostPort returns a host:port suitable for net.Dial.
func (u *URI) HostPort() string {
	return net.JoinHostPort(u.Hostname(), strconv.Itoa(int(u.EffectivePort())))
}

func (u *URI) Path() (string, bool)     { return u.path.in(u.buf) }
func (u *URI) Query() (string, bool)    { return u.query.in(u.buf) }
func (u *URI) Fragment() (string, bool) { return u.fragment.in(u.buf) }

// Username returns the username from the authority's userinfo.
func (u *URI) Username() (string, bool) {
	if u.authority == nil {
		return "", false
	}
	return u.authority.Username()
}

// Password returns the password from the authority's userinfo.
func (u *URI) Password() (string, bool) {
	if u.authority == nil {
		return "", false
	}
	return u.authority.Password()
}

// UserInfo returns "user[:password]".
func (u *URI) UserInfo() (string, bool) {
	if u.authority == nil {
		return "", false
	}
	return u.authority.UserInfo()
}

// IsTLS reports whether the scheme implies TLS to the origin.
func (u *URI) IsTLS() bool { return u.Scheme() == SchemeHTTPS }

// Resource returns path, query and fragment as they appear in the URI, or
// "/" when none is present. It is a tail slice of the buffer unless the
// leading "/" has to be supplied.
func (u *URI) Resource() string {
	switch {
	case u.path.ok:
		return u.buf[u.path.Start:]
	case u.query.ok:
		return "/" + u.buf[u.query.Start-1:]
	case u.fragment.ok:
		return "/" + u.buf[u.fragment.Start-1:]
	default:
		return "/"
	}
}

// HostHeader returns the value for the Host header: the host, followed by
// ":port" unless the port is the scheme's default.
func (u *URI) HostHeader() string {
	host := u.Host()
	port := u.EffectivePort()
	if port == DefaultPort(u.Scheme()) {
		return host
	}
	return host + ":" + strconv.Itoa(int(port))
}

// AbsoluteForm returns scheme://host:port followed by the resource. This is
// the request-target sent to an HTTP forward proxy.
func (u *URI) AbsoluteForm() string {
	var b strings.Builder
	b.WriteString(u.Scheme())
	b.WriteString("://")
	b.WriteString(u.Host())
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(u.EffectivePort())))
	b.WriteString(u.Resource())
	return b.String()
}

// Addr classifies the host.
func (u *URI) Addr() (addr.Addr, error) {
	if u.authority == nil {
		return addr.Addr{}, httperr.New(httperr.EmptyAuthority, u.buf, nil)
	}
	return addr.Classify(u.Host())
}

// SOCKSAddr returns the SOCKS5 encoding of host and effective port:
// {ATYP, address, big-endian port}.
func (u *URI) SOCKSAddr() ([]byte, error) {
	a, err := u.Addr()
	if err != nil {
		return nil, err
	}
	return a.SOCKS(u.EffectivePort())
}

// String returns the normalized URI. Parsing it again yields an equal URI.
func (u *URI) String() string { return u.buf }

// Redacted is like String but replaces each byte of the password with '*'.
func (u *URI) Redacted() string {
	if u.authority == nil || !u.authority.password.ok {
		return u.buf
	}
	p := u.authority.password.RangeIndex
	return u.buf[:p.Start] + strings.Repeat("*", p.Len()) + u.buf[p.End:]
}
