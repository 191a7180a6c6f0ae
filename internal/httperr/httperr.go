package httperr

import (
	"errors"
	"fmt"
	"strconv"
)

// ParseError classifies malformed input: URIs, addresses, header blocks.
type ParseError int

const (
	EmptyScheme ParseError = iota
	EmptyAuthority
	ParseHost
	ParsePort
	ParseIPv6
	ParseAddr
	ParseHeaders
	UnknownMethod
	UnsupportedVersion
)

func (e ParseError) Error() string {
	switch e {
	case EmptyScheme:
		return "uri has no scheme"
	case EmptyAuthority:
		return "uri has no authority"
	case ParseHost:
		return "invalid host"
	case ParsePort:
		return "invalid port"
	case ParseIPv6:
		return "invalid ipv6 literal"
	case ParseAddr:
		return "invalid address"
	case ParseHeaders:
		return "invalid header block"
	case UnknownMethod:
		return "unknown method"
	case UnsupportedVersion:
		return "unsupported http version"
	default:
		return "parse error " + strconv.Itoa(int(e))
	}
}

// ProtocolError classifies a peer (proxy or SOCKS server) that answered
// with something the client cannot proceed with.
type ProtocolError int

const (
	UnsupportedScheme ProtocolError = iota
	UnsupportedProxyScheme
	InvalidServerVersion
	InvalidAuthMethod
	InvalidAuthVersion
	AuthFailure
	GeneralFailure
	InvalidRuleset
	NetworkUnreachable
	HostUnreachable
	RefusedByHost
	TtlExpired
	InvalidCommandProtocol
	InvalidAddressType
	InvalidReservedByte
	UnknownError
)

func (e ProtocolError) Error() string {
	switch e {
	case UnsupportedScheme:
		return "unsupported scheme"
	case UnsupportedProxyScheme:
		return "unsupported proxy scheme"
	case InvalidServerVersion:
		return "invalid socks server version"
	case InvalidAuthMethod:
		return "invalid socks auth method"
	case InvalidAuthVersion:
		return "invalid socks auth version"
	case AuthFailure:
		return "socks authentication failed"
	case GeneralFailure:
		return "socks general failure"
	case InvalidRuleset:
		return "connection not allowed by ruleset"
	case NetworkUnreachable:
		return "network unreachable"
	case HostUnreachable:
		return "host unreachable"
	case RefusedByHost:
		return "connection refused by destination host"
	case TtlExpired:
		return "ttl expired"
	case InvalidCommandProtocol:
		return "command not supported / protocol error"
	case InvalidAddressType:
		return "address type not supported"
	case InvalidReservedByte:
		return "invalid reserved byte"
	case UnknownError:
		return "unknown socks error"
	default:
		return "protocol error " + strconv.Itoa(int(e))
	}
}

// ResponseError classifies an HTTP response that cannot be consumed.
type ResponseError int

const (
	EmptyResponse ResponseError = iota
	MissingContentLength
	MalformedStatus
	HeadTooLarge
	BodyTooLarge
)

func (e ResponseError) Error() string {
	switch e {
	case EmptyResponse:
		return "empty response"
	case MissingContentLength:
		return "missing or invalid content-length"
	case MalformedStatus:
		return "malformed status line"
	case HeadTooLarge:
		return "response head too large"
	case BodyTooLarge:
		return "response body too large"
	default:
		return "response error " + strconv.Itoa(int(e))
	}
}

var (
	// ErrIO marks failures of the underlying socket.
	ErrIO = errors.New("i/o failure")
	// ErrTLS marks a failed TLS handshake.
	ErrTLS = errors.New("tls handshake failed")
)

// Error carries one kind from the taxonomy above, an optional detail (the
// offending scheme, status byte, header line, ...) and an optional cause.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

// New returns an *Error of the given kind.
func New(kind error, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// IO wraps a socket failure during op.
func IO(op string, err error) *Error {
	return &Error{Kind: ErrIO, Detail: op, Err: err}
}

func (e *Error) Error() string {
	s := e.Kind.Error()
	if e.Detail != "" {
		s += " " + strconv.Quote(e.Detail)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
