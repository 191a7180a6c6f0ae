package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/die-net/proxyget/internal/addr"
	"github.com/die-net/proxyget/internal/http1"
	"github.com/die-net/proxyget/internal/httperr"
	"github.com/die-net/proxyget/internal/resolver"
	"github.com/die-net/proxyget/internal/socks5"
	"github.com/die-net/proxyget/internal/stream"
	"github.com/die-net/proxyget/internal/uri"
)

// Kind is the connection strategy a Transport was built with.
type Kind int

const (
	Direct Kind = iota
	HTTPProxy
	SOCKS5Proxy
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case HTTPProxy:
		return "http-proxy"
	case SOCKS5Proxy:
		return "socks5-proxy"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Transport is one established connection, ready for a request. It owns
// its stream; Close closes the socket.
type Transport struct {
	kind   Kind
	stream *stream.Stream
	proxy  *uri.URI
	dst    addr.Addr
	log    *log.Logger
}

// kindFor validates both schemes without touching the network.
func kindFor(target, proxy *uri.URI) (Kind, error) {
	switch s := target.Scheme(); s {
	case uri.SchemeHTTP, uri.SchemeHTTPS:
	default:
		return 0, httperr.New(httperr.UnsupportedScheme, s, nil)
	}

	if proxy == nil {
		return Direct, nil
	}
	switch s := proxy.Scheme(); s {
	case uri.SchemeHTTP, uri.SchemeHTTPS:
		return HTTPProxy, nil
	case uri.SchemeSOCKS5, uri.SchemeSOCKS5H:
		return SOCKS5Proxy, nil
	default:
		return 0, httperr.New(httperr.UnsupportedScheme, s, httperr.UnsupportedProxyScheme)
	}
}

// Connect establishes a stream that a request for target can be written to,
// directly when proxy is nil and through proxy otherwise.
func Connect(ctx context.Context, cfg Config, target, proxy *uri.URI) (*Transport, error) {
	kind, err := kindFor(target, proxy)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		kind:  kind,
		proxy: proxy,
		log:   cfg.logger().With("target", target.Redacted(), "via", kind),
	}

	if kind == SOCKS5Proxy {
		t.dst, err = socksTarget(ctx, cfg, target, proxy.Scheme() == uri.SchemeSOCKS5)
		if err != nil {
			return nil, err
		}
	}

	d, err := cfg.dialer()
	if err != nil {
		return nil, err
	}

	address := target.HostPort()
	if proxy != nil {
		address = proxy.HostPort()
	}
	t.log.Debug("dialing", "addr", address)
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, httperr.IO("connect", err)
	}

	if cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.NegotiationTimeout))
	}
	// Unblock the handshake if ctx is cancelled mid-way.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	s, err := t.negotiate(ctx, cfg, conn, target)
	if !stop() || (err != nil && ctx.Err() != nil) {
		_ = conn.Close()
		return nil, fmt.Errorf("connect %s: %w", address, context.Cause(ctx))
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.NegotiationTimeout > 0 {
		_ = s.SetDeadline(time.Time{})
	}
	s.MaxHeadBytes = cfg.MaxHeadBytes
	s.MaxBodyBytes = cfg.MaxBodyBytes
	t.stream = s
	t.log.Debug("connected", "stream", s.Kind())
	return t, nil
}

func (t *Transport) negotiate(ctx context.Context, cfg Config, conn net.Conn, target *uri.URI) (*stream.Stream, error) {
	switch t.kind {
	case Direct:
		return t.wrap(ctx, cfg, conn, target)
	case HTTPProxy:
		return t.wrap(ctx, cfg, conn, t.proxy)
	case SOCKS5Proxy:
		// The proxy sees the plain handshake; TLS to the target runs inside
		// the tunnel afterwards.
		user, _ := t.proxy.Username()
		pass, _ := t.proxy.Password()
		c := &socks5.Client{
			Auth:  socks5.Auth{Username: user, Password: pass},
			Trace: func(s socks5.State) { t.log.Debug("socks5", "state", s) },
		}
		bound, err := c.Dial(conn, t.dst, target.EffectivePort())
		if err != nil {
			return nil, err
		}
		t.log.Debug("socks5 tunnel up", "dst", t.dst, "bound", bound)
		return t.wrap(ctx, cfg, conn, target)
	default:
		return nil, fmt.Errorf("unknown transport kind %v", t.kind)
	}
}

// wrap starts TLS to peer when its scheme asks for it.
func (t *Transport) wrap(ctx context.Context, cfg Config, conn net.Conn, peer *uri.URI) (*stream.Stream, error) {
	if !peer.IsTLS() {
		return stream.NewPlain(conn), nil
	}
	t.log.Debug("tls handshake", "server_name", peer.Hostname())
	return stream.NewTLS(ctx, peer.Hostname(), conn, cfg.TLSConfig)
}

// socksTarget returns the address sent in the CONNECT request. With local
// resolution a domain is replaced by its first resolved address.
func socksTarget(ctx context.Context, cfg Config, target *uri.URI, resolveLocally bool) (addr.Addr, error) {
	a, err := target.Addr()
	if err != nil {
		return addr.Addr{}, err
	}
	if a.Kind() != addr.Domain || !resolveLocally {
		return a, nil
	}

	host, err := a.ASCII()
	if err != nil {
		return addr.Addr{}, err
	}
	ips, err := cfg.resolver().LookupNetIP(ctx, host)
	if err != nil {
		return addr.Addr{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return addr.Addr{}, fmt.Errorf("resolve %s: %w", host, resolver.ErrNoAddresses)
	}
	return addr.FromIP(ips[0]), nil
}

func (t *Transport) Kind() Kind { return t.kind }

// Stream returns the established stream.
func (t *Transport) Stream() *stream.Stream { return t.stream }

// SOCKSTarget returns the destination sent to a SOCKS5 proxy.
func (t *Transport) SOCKSTarget() (addr.Addr, bool) {
	return t.dst, t.kind == SOCKS5Proxy
}

// RequestTarget returns the request-target for target: absolute-URI form
// through an HTTP proxy, origin form otherwise.
func (t *Transport) RequestTarget(target *uri.URI) string {
	if t.kind == HTTPProxy {
		return target.AbsoluteForm()
	}
	return target.Resource()
}

// Prepare sets the request-target of req for target and, when an HTTP
// proxy URI carries credentials, adds Proxy-Authorization.
func (t *Transport) Prepare(req *http1.Request, target *uri.URI) {
	req.Target = t.RequestTarget(target)
	if t.kind != HTTPProxy {
		return
	}
	if user, ok := t.proxy.Username(); ok {
		pass, _ := t.proxy.Password()
		req.Header.Insert("Proxy-Authorization", "Basic "+basicAuth(user, pass))
	}
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

// SendRequest writes req and flushes it to the socket.
func (t *Transport) SendRequest(req *http1.Request) error {
	if _, err := req.WriteTo(t.stream); err != nil {
		return err
	}
	return t.stream.Flush()
}

// ReadResponse reads the response head.
func (t *Transport) ReadResponse() (*http1.Response, error) {
	return http1.ReadResponse(t.stream)
}

// ReadBody reads exactly Content-Length bytes of the body of resp.
func (t *Transport) ReadBody(resp *http1.Response) ([]byte, error) {
	return http1.ReadBody(t.stream, resp)
}

func (t *Transport) Close() error {
	return t.stream.Close()
}
