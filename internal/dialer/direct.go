package dialer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"syscall"
)

// Direct connects to host:port without any proxy.
type Direct struct {
	cfg     Config
	control func(network, address string, c syscall.RawConn) error
}

// Resolve returns the addresses for host. IP literals, with or without
// brackets, are returned as is.
func (d *Direct) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if ip, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{ip}, nil
	}
	return d.cfg.resolver().LookupNetIP(ctx, host)
}

// DialContext resolves the host in address and tries each address in turn,
// each attempt bounded by DialTimeout. The last error is returned only once
// every address has failed.
func (d *Direct) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}

	ips, err := d.Resolve(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}

	var lastErr error
	for _, ip := range ips {
		conn, err := d.dialOne(ctx, network, net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no addresses")
	}
	return nil, fmt.Errorf("dial %s %s: %w", network, address, lastErr)
}

func (d *Direct) dialOne(ctx context.Context, network, address string) (net.Conn, error) {
	dd := net.Dialer{
		Timeout:         d.cfg.DialTimeout,
		KeepAliveConfig: d.cfg.KeepAlive,
		Control:         d.control,
	}
	if !d.cfg.KeepAlive.Enable {
		// Otherwise net.Dialer enables its default keepalive.
		dd.KeepAlive = -1
	}

	conn, err := dd.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}

	if tc, ok := conn.(*net.TCPConn); ok && d.cfg.Nagle {
		_ = tc.SetNoDelay(false)
	}
	return conn, nil
}
