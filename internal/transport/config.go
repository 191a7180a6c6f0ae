package transport

import (
	"crypto/tls"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/die-net/proxyget/internal/dialer"
	"github.com/die-net/proxyget/internal/resolver"
)

type Config struct {
	// Dialer opens the TCP connection to the origin or the proxy. Nil means
	// a dialer.Direct with default settings.
	Dialer dialer.Dialer

	// Resolver turns the target host into an address for socks5 (but not
	// socks5h) proxies. Nil means resolver.System.
	Resolver resolver.Resolver

	// NegotiationTimeout bounds TLS and SOCKS5 setup after the TCP connect.
	NegotiationTimeout time.Duration

	// TLSConfig is cloned for every handshake. Nil means crypto/tls defaults.
	TLSConfig *tls.Config

	MaxHeadBytes int

	// MaxBodyBytes rejects a Content-Length above it. Zero means no cap.
	MaxBodyBytes int64

	Logger *log.Logger
}

func (c Config) dialer() (dialer.Dialer, error) {
	if c.Dialer != nil {
		return c.Dialer, nil
	}
	return dialer.New(dialer.Config{Resolver: c.Resolver})
}

func (c Config) resolver() resolver.Resolver {
	if c.Resolver == nil {
		return resolver.System{}
	}
	return c.Resolver
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}
