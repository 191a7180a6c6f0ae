package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// ErrNoAddresses is returned when a lookup succeeds but yields nothing.
var ErrNoAddresses = errors.New("no addresses")

// Resolver turns an ASCII host name into addresses.
type Resolver interface {
	LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error)
}

// New returns the system resolver when server is empty, otherwise a
// resolver that queries server directly.
func New(server string) Resolver {
	if server == "" {
		return System{}
	}
	return NewDNS(server)
}

// System resolves through net.DefaultResolver.
type System struct{}

func (System) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", host, ErrNoAddresses)
	}
	for i, ip := range ips {
		ips[i] = ip.Unmap()
	}
	return ips, nil
}

// DNS sends A and AAAA queries to a single server over UDP.
type DNS struct {
	server string
	client *dns.Client
}

// NewDNS queries server, a host or host:port; the port defaults to 53.
func NewDNS(server string) *DNS {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNS{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: 5 * time.Second},
	}
}

// LookupNetIP returns IPv4 answers before IPv6 ones. IP literals are
// returned without a query.
func (d *DNS) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{ip}, nil
	}

	var ips []netip.Addr
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := d.query(ctx, host, qtype)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", host, err)
		}
		ips = append(ips, found...)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", host, ErrNoAddresses)
	}
	return ips, nil
}

func (d *DNS) query(ctx context.Context, host string, qtype uint16) ([]netip.Addr, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	in, _, err := d.client.ExchangeContext(ctx, m, d.server)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dns.TypeToString[qtype], err)
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, nil
	default:
		return nil, fmt.Errorf("query %s: %s", dns.TypeToString[qtype], dns.RcodeToString[in.Rcode])
	}

	var ips []netip.Addr
	for _, rr := range in.Answer {
		var raw net.IP
		switch rr := rr.(type) {
		case *dns.A:
			raw = rr.A
		case *dns.AAAA:
			raw = rr.AAAA
		default:
			continue
		}
		if ip, ok := netip.AddrFromSlice(raw); ok {
			ips = append(ips, ip.Unmap())
		}
	}
	return ips, nil
}
