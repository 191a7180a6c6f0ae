// Package addr classifies URI hosts as IPv4, IPv6 or domain addresses and
// encodes them for the SOCKS5 wire format (RFC 1928 section 5).
package addr

import (
	"encoding/binary"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"

	"github.com/die-net/proxyget/internal/httperr"
)

// Kind is the closed set of address variants.
type Kind uint8

const (
	IPv4 Kind = iota + 1
	IPv6
	Domain
)

// SOCKS5 ATYP values.
const (
	TypeIPv4   byte = 0x01
	TypeDomain byte = 0x03
	TypeIPv6   byte = 0x04
)

// forbiddenDomainChars may never appear in a domain host.
const forbiddenDomainChars = "\x00\t\r\n #%/:?@[\\]"

// Addr is a classified host.
type Addr struct {
	kind   Kind
	ip     netip.Addr
	domain string
}

// Classify inspects a host as it appears in a URI authority. IPv6 literals
// are only recognized inside square brackets.
func Classify(host string) (Addr, error) {
	if host == "" {
		return Addr{}, httperr.New(httperr.ParseHost, host, nil)
	}

	if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") {
			return Addr{}, httperr.New(httperr.ParseIPv6, host, nil)
		}
		ip, err := netip.ParseAddr(host[1 : len(host)-1])
		if err != nil || !ip.Is6() || ip.Zone() != "" {
			return Addr{}, httperr.New(httperr.ParseIPv6, host, err)
		}
		return Addr{kind: IPv6, ip: ip}, nil
	}

	if ip, err := netip.ParseAddr(host); err == nil && ip.Is4() {
		return Addr{kind: IPv4, ip: ip}, nil
	}

	if strings.ContainsAny(host, forbiddenDomainChars) {
		return Addr{}, httperr.New(httperr.ParseAddr, host, nil)
	}
	return Addr{kind: Domain, domain: host}, nil
}

// FromIP wraps a resolved address.
func FromIP(ip netip.Addr) Addr {
	ip = ip.Unmap()
	if ip.Is4() {
		return Addr{kind: IPv4, ip: ip}
	}
	return Addr{kind: IPv6, ip: ip.WithZone("")}
}

// FromDomain wraps a name reported by a peer, such as a SOCKS5 bound
// address, without the checks Classify applies to URI hosts.
func FromDomain(name string) Addr {
	return Addr{kind: Domain, domain: name}
}

func (a Addr) Kind() Kind { return a.kind }

// IP returns the address for the IPv4 and IPv6 variants.
func (a Addr) IP() (netip.Addr, bool) {
	return a.ip, a.kind == IPv4 || a.kind == IPv6
}

// Domain returns the host name for the Domain variant, as written.
func (a Addr) Domain() (string, bool) {
	return a.domain, a.kind == Domain
}

// ASCII returns the IDNA ASCII form of a domain, which is what goes on the
// wire. IP variants return their textual form.
func (a Addr) ASCII() (string, error) {
	switch a.kind {
	case IPv4, IPv6:
		return a.ip.String(), nil
	case Domain:
		if isASCII(a.domain) {
			return a.domain, nil
		}
		s, err := idna.Lookup.ToASCII(a.domain)
		if err != nil {
			return "", httperr.New(httperr.ParseAddr, a.domain, err)
		}
		return s, nil
	default:
		return "", httperr.New(httperr.ParseAddr, "", nil)
	}
}

// SOCKS returns {ATYP, address, big-endian port}. Domains are length
// prefixed and must fit in 255 bytes once converted to ASCII.
func (a Addr) SOCKS(port uint16) ([]byte, error) {
	atyp, raw, err := a.socksParts()
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, 1+len(raw)+2)
	b = append(b, atyp)
	b = append(b, raw...)
	return binary.BigEndian.AppendUint16(b, port), nil
}

// SOCKSParts returns the ATYP and the address bytes separately. Domain
// bytes are returned without the length prefix.
func (a Addr) SOCKSParts() (atyp byte, raw []byte, err error) {
	atyp, raw, err = a.socksParts()
	if err != nil {
		return 0, nil, err
	}
	if atyp == TypeDomain {
		raw = raw[1:]
	}
	return atyp, raw, nil
}

func (a Addr) socksParts() (byte, []byte, error) {
	switch a.kind {
	case IPv4:
		b := a.ip.As4()
		return TypeIPv4, b[:], nil
	case IPv6:
		b := a.ip.As16()
		return TypeIPv6, b[:], nil
	case Domain:
		name, err := a.ASCII()
		if err != nil {
			return 0, nil, err
		}
		if len(name) == 0 || len(name) > 255 {
			return 0, nil, httperr.New(httperr.ParseAddr, a.domain, nil)
		}
		raw := make([]byte, 0, 1+len(name))
		raw = append(raw, byte(len(name)))
		raw = append(raw, name...)
		return TypeDomain, raw, nil
	default:
		return 0, nil, httperr.New(httperr.ParseAddr, "", nil)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (a Addr) String() string {
	switch a.kind {
	case IPv4:
		return a.ip.String()
	case IPv6:
		return "[" + a.ip.String() + "]"
	case Domain:
		return a.domain
	default:
		return ""
	}
}
