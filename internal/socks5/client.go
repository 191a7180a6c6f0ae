package socks5

import (
	"encoding/binary"
	"io"
	"net/netip"
	"strconv"

	txsocks5 "github.com/txthinking/socks5"

	"github.com/die-net/proxyget/internal/addr"
	"github.com/die-net/proxyget/internal/httperr"
)

const (
	version         byte = 0x05
	userPassVersion byte = 0x01
	noAcceptable    byte = 0xff
	maxCredential        = 255
)

// CmdConnect is the SOCKS5 CONNECT command value.
const CmdConnect = txsocks5.CmdConnect

// Auth configures optional username/password authentication (RFC 1929).
type Auth struct {
	Username string
	Password string
}

func (a Auth) method() byte {
	if a.Username != "" || a.Password != "" {
		return txsocks5.MethodUsernamePassword
	}
	return txsocks5.MethodNone
}

// replyErrors maps CONNECT reply codes 1 through 8 to their error kinds.
var replyErrors = map[byte]httperr.ProtocolError{
	txsocks5.RepServerFailure:       httperr.GeneralFailure,
	txsocks5.RepNotAllowed:          httperr.InvalidRuleset,
	txsocks5.RepNetworkUnreachable:  httperr.NetworkUnreachable,
	txsocks5.RepHostUnreachable:     httperr.HostUnreachable,
	txsocks5.RepConnectionRefused:   httperr.RefusedByHost,
	txsocks5.RepTTLExpired:          httperr.TtlExpired,
	txsocks5.RepCommandNotSupported: httperr.InvalidCommandProtocol,
	txsocks5.RepAddressNotSupported: httperr.InvalidAddressType,
}

// Bound is the address the proxy reports for its end of the tunnel.
type Bound struct {
	Addr addr.Addr
	Port uint16
}

func (b Bound) String() string {
	return b.Addr.String() + ":" + strconv.Itoa(int(b.Port))
}

// Client runs the client side of one SOCKS5 handshake. The zero value
// offers no authentication. A Client must not be reused.
type Client struct {
	Auth Auth

	// Trace, when set, is called on every state transition.
	Trace func(State)

	state State
}

// State returns the state the handshake reached.
func (c *Client) State() State { return c.state }

func (c *Client) enter(s State) {
	c.state = s
	if c.Trace != nil {
		c.Trace(s)
	}
}

// Dial negotiates a method, authenticates if asked to, and issues CONNECT to
// dst:port. conn must be the raw connection to the proxy; nothing may have
// been read from it yet.
func (c *Client) Dial(conn io.ReadWriter, dst addr.Addr, port uint16) (Bound, error) {
	if err := c.Negotiate(conn); err != nil {
		return Bound{}, err
	}
	bound, err := c.Connect(conn, dst, port)
	if err != nil {
		return Bound{}, err
	}
	c.enter(Established)
	return bound, nil
}

// Negotiate offers exactly one method and runs the username/password
// sub-negotiation when the proxy picks it.
func (c *Client) Negotiate(conn io.ReadWriter) error {
	if len(c.Auth.Username) > maxCredential || len(c.Auth.Password) > maxCredential {
		return httperr.New(httperr.AuthFailure, "credentials longer than 255 bytes", nil)
	}

	offered := c.Auth.method()
	if _, err := txsocks5.NewNegotiationRequest([]byte{offered}).WriteTo(conn); err != nil {
		return httperr.IO("write negotiation", err)
	}
	c.enter(GreetingSent)

	var rep [2]byte
	if _, err := io.ReadFull(conn, rep[:]); err != nil {
		return httperr.IO("read negotiation", err)
	}
	if rep[0] != version {
		return httperr.New(httperr.InvalidServerVersion, strconv.Itoa(int(rep[0])), nil)
	}
	switch chosen := rep[1]; {
	case chosen == noAcceptable:
		c.enter(AuthFailed)
		return httperr.New(httperr.AuthFailure, "no acceptable methods", nil)
	case chosen != offered:
		return httperr.New(httperr.InvalidAuthMethod, strconv.Itoa(int(chosen)), nil)
	}
	c.enter(MethodChosen)

	if offered == txsocks5.MethodNone {
		return nil
	}

	req := txsocks5.NewUserPassNegotiationRequest([]byte(c.Auth.Username), []byte(c.Auth.Password))
	if _, err := req.WriteTo(conn); err != nil {
		return httperr.IO("write userpass", err)
	}
	if _, err := io.ReadFull(conn, rep[:]); err != nil {
		return httperr.IO("read userpass", err)
	}
	if rep[0] != userPassVersion {
		return httperr.New(httperr.InvalidAuthVersion, strconv.Itoa(int(rep[0])), nil)
	}
	if rep[1] != txsocks5.UserPassStatusSuccess {
		c.enter(AuthFailed)
		return httperr.New(httperr.AuthFailure, strconv.Itoa(int(rep[1])), nil)
	}
	c.enter(Authenticated)
	return nil
}

// Connect sends CONNECT for dst:port and reads the reply including the bound
// address.
func (c *Client) Connect(conn io.ReadWriter, dst addr.Addr, port uint16) (Bound, error) {
	atyp, dstAddr, err := dst.SOCKSParts()
	if err != nil {
		return Bound{}, err
	}
	dstPort := binary.BigEndian.AppendUint16(nil, port)

	if _, err := txsocks5.NewRequest(CmdConnect, atyp, dstAddr, dstPort).WriteTo(conn); err != nil {
		return Bound{}, httperr.IO("write request", err)
	}
	c.enter(ConnectRequested)

	var hdr [4]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return Bound{}, httperr.IO("read reply", err)
	}
	if hdr[0] != version {
		return Bound{}, httperr.New(httperr.InvalidServerVersion, strconv.Itoa(int(hdr[0])), nil)
	}
	if status := hdr[1]; status != txsocks5.RepSuccess {
		c.enter(ConnectRejected)
		kind, ok := replyErrors[status]
		if !ok {
			kind = httperr.UnknownError
		}
		return Bound{}, httperr.New(kind, strconv.Itoa(int(status)), nil)
	}
	if hdr[2] != 0x00 {
		return Bound{}, httperr.New(httperr.InvalidReservedByte, strconv.Itoa(int(hdr[2])), nil)
	}
	c.enter(ConnectGranted)

	bound, err := readBound(conn, hdr[3])
	if err != nil {
		return Bound{}, err
	}
	c.enter(BoundAddressRead)
	return bound, nil
}

func readBound(r io.Reader, atyp byte) (Bound, error) {
	var n int
	switch atyp {
	case addr.TypeIPv4:
		n = 4
	case addr.TypeIPv6:
		n = 16
	case addr.TypeDomain:
		var l [1]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return Bound{}, httperr.IO("read bound address", err)
		}
		n = int(l[0])
	default:
		return Bound{}, httperr.New(httperr.InvalidAddressType, strconv.Itoa(int(atyp)), nil)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Bound{}, httperr.IO("read bound address", err)
	}
	port := binary.BigEndian.Uint16(buf[n:])

	if atyp == addr.TypeDomain {
		return Bound{Addr: addr.FromDomain(string(buf[:n])), Port: port}, nil
	}
	ip, _ := netip.AddrFromSlice(buf[:n])
	return Bound{Addr: addr.FromIP(ip), Port: port}, nil
}
