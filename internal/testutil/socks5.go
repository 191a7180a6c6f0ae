package testutil

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"

	txsocks5 "github.com/txthinking/socks5"
)

// SOCKS5Server is a minimal SOCKS5 proxy for tests. It speaks CONNECT only,
// optionally requires username/password, and records every destination it
// was asked for.
type SOCKS5Server struct {
	Username string
	Password string

	// Rep, when non-zero, is returned for every CONNECT instead of dialing.
	Rep byte

	mu       sync.Mutex
	requests []string
	accepted int
}

// StartSOCKS5Server serves s on a loopback listener until the test ends and
// returns the listener address.
func StartSOCKS5Server(t *testing.T, ctx context.Context, s *SOCKS5Server) string {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.accepted++
			s.mu.Unlock()
			wg.Go(func() {
				stop := context.AfterFunc(ctx, func() { _ = c.Close() })
				defer stop()
				s.handleConn(ctx, c)
			})
		}
	})
	t.Cleanup(func() {
		cancel()
		_ = ln.Close()
		wg.Wait()
	})

	return ln.Addr().String()
}

// Requests returns the CONNECT destinations seen so far as host:port.
func (s *SOCKS5Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Accepted returns how many connections the server accepted.
func (s *SOCKS5Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *SOCKS5Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if !s.negotiate(conn) {
		return
	}

	req, err := txsocks5.NewRequestFrom(conn)
	if err != nil {
		return
	}
	if req.Cmd != txsocks5.CmdConnect {
		writeZeroReply(conn, txsocks5.RepCommandNotSupported, req.Atyp)
		return
	}

	dst := requestAddress(req)
	s.mu.Lock()
	s.requests = append(s.requests, dst)
	s.mu.Unlock()

	if s.Rep != txsocks5.RepSuccess {
		writeZeroReply(conn, s.Rep, req.Atyp)
		return
	}

	var d net.Dialer
	up, err := d.DialContext(ctx, "tcp", dst)
	if err != nil {
		writeZeroReply(conn, txsocks5.RepConnectionRefused, req.Atyp)
		return
	}
	defer up.Close()

	if err := writeSuccessReply(conn, up.LocalAddr()); err != nil {
		return
	}

	_ = CopyBidirectional(ctx, conn, up)
}

func (s *SOCKS5Server) negotiate(conn net.Conn) bool {
	neg, err := txsocks5.NewNegotiationRequestFrom(conn)
	if err != nil {
		return false
	}

	want := txsocks5.MethodNone
	if s.Username != "" {
		want = txsocks5.MethodUsernamePassword
	}
	if !containsMethod(neg.Methods, want) {
		// RFC 1928: 0xFF indicates no acceptable methods.
		_, _ = txsocks5.NewNegotiationReply(0xff).WriteTo(conn)
		return false
	}
	if _, err := txsocks5.NewNegotiationReply(want).WriteTo(conn); err != nil {
		return false
	}
	if want == txsocks5.MethodNone {
		return true
	}

	urq, err := txsocks5.NewUserPassNegotiationRequestFrom(conn)
	if err != nil {
		return false
	}
	if string(urq.Uname) != s.Username || string(urq.Passwd) != s.Password {
		_, _ = txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusFailure).WriteTo(conn)
		return false
	}
	_, err = txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusSuccess).WriteTo(conn)
	return err == nil
}

// requestAddress renders the CONNECT destination. Domain addresses come back
// from the library with their length prefix.
func requestAddress(req *txsocks5.Request) string {
	var host string
	switch req.Atyp {
	case txsocks5.ATYPIPv4, txsocks5.ATYPIPv6:
		host = net.IP(req.DstAddr).String()
	default:
		b := req.DstAddr
		if len(b) > 0 && int(b[0]) == len(b)-1 {
			b = b[1:]
		}
		host = string(b)
	}
	port := 0
	if len(req.DstPort) == 2 {
		port = int(req.DstPort[0])<<8 | int(req.DstPort[1])
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func writeSuccessReply(conn net.Conn, localAddr net.Addr) error {
	a, addr, port, err := txsocks5.ParseAddress(localAddr.String())
	if err != nil {
		return err
	}
	if a == txsocks5.ATYPDomain {
		addr = addr[1:]
	}
	_, err = txsocks5.NewReply(txsocks5.RepSuccess, a, addr, port).WriteTo(conn)
	return err
}

func writeZeroReply(conn net.Conn, rep, atyp byte) {
	if atyp == txsocks5.ATYPIPv6 {
		_, _ = txsocks5.NewReply(rep, txsocks5.ATYPIPv6, []byte(net.IPv6zero), []byte{0x00, 0x00}).WriteTo(conn)
		return
	}
	_, _ = txsocks5.NewReply(rep, txsocks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(conn)
}

func containsMethod(methods []byte, want byte) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}
