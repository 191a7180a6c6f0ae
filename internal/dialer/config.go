package dialer

import (
	"net"
	"time"

	"github.com/die-net/proxyget/internal/resolver"
)

type Config struct {
	// DialTimeout bounds each connect attempt, not the whole dial.
	DialTimeout time.Duration
	KeepAlive   net.KeepAliveConfig
	// Nagle re-enables Nagle's algorithm, which Go disables by default.
	Nagle bool
	// Interface binds outbound sockets to a network device (linux only).
	Interface string
	// Resolver defaults to resolver.System.
	Resolver resolver.Resolver
}

func (c Config) resolver() resolver.Resolver {
	if c.Resolver == nil {
		return resolver.System{}
	}
	return c.Resolver
}
