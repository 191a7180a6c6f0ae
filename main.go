package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/proxyget/internal/client"
	"github.com/die-net/proxyget/internal/dialer"
	"github.com/die-net/proxyget/internal/http1"
	"github.com/die-net/proxyget/internal/resolver"
	"github.com/die-net/proxyget/internal/transport"
	"github.com/die-net/proxyget/internal/uri"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		proxyURL = pflag.String("proxy", defaultProxy(), "Proxy URL: direct:// | http://[user:pass@]host:port | https://[user:pass@]host:port | socks5://[user:pass@]host:port | socks5h://[user:pass@]host:port")

		method  = pflag.StringP("method", "X", "", "Request method (default GET, or POST with --data)")
		headers = pflag.StringArrayP("header", "H", nil, "Extra request header 'Name: value' (repeatable)")
		data    = pflag.StringP("data", "d", "", "Request body")
		http10  = pflag.Bool("http10", false, "Send HTTP/1.0 requests")
		include = pflag.BoolP("include", "i", false, "Print the response status line and headers")

		parallel           = pflag.Int("parallel", 4, "Maximum number of URLs fetched at once")
		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for each outbound TCP connect attempt")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for TLS and SOCKS5 negotiation after connect")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		nagle              = pflag.Bool("nagle", false, "Enable Nagle's algorithm on outbound connections")
		iface              = pflag.String("interface", "", "Bind outbound connections to this network interface (linux only)")
		dnsServer          = pflag.String("dns-server", "", "DNS server (host[:port]) for name lookups; empty uses the system resolver")
		insecure           = pflag.Bool("insecure", false, "Skip TLS certificate verification")
		verbose            = pflag.Bool("verbose", false, "Enable debug logging of connection setup")
	)

	pflag.CommandLine.SortFlags = false
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] URL...\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		return errors.New("no URL given")
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	proxy, err := parseProxy(*proxyURL)
	if err != nil {
		return fmt.Errorf("invalid --proxy: %w", err)
	}

	tmpl, err := newTemplate(*method, *headers, *data, *http10)
	if err != nil {
		return err
	}

	targets := make([]*uri.URI, pflag.NArg())
	for i, raw := range pflag.Args() {
		if targets[i], err = uri.Parse(raw); err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
	}

	res := resolver.New(*dnsServer)
	d, err := dialer.New(dialer.Config{
		DialTimeout: *dialTimeout,
		KeepAlive:   ka,
		Nagle:       *nagle,
		Interface:   *iface,
		Resolver:    res,
	})
	if err != nil {
		return fmt.Errorf("invalid --interface: %w", err)
	}

	c := &client.Client{
		Config: transport.Config{
			Dialer:             d,
			Resolver:           res,
			NegotiationTimeout: *negotiationTimeout,
			TLSConfig:          &tls.Config{InsecureSkipVerify: *insecure, MinVersion: tls.VersionTLS12}, //nolint:gosec // Opt-in via --insecure.
			Logger:             logger,
		},
		Proxy: proxy,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if proxy != nil {
		logger.Debug("using proxy", "proxy", proxy.Redacted())
	}

	responses := make([]*client.Response, len(targets))
	errs := make([]error, len(targets))
	var g errgroup.Group
	g.SetLimit(max(*parallel, 1))
	for i, target := range targets {
		g.Go(func() error {
			responses[i], errs[i] = c.Do(ctx, target, tmpl.request(target))
			return nil
		})
	}
	_ = g.Wait()

	w := bufio.NewWriter(os.Stdout)
	failed := 0
	for i, resp := range responses {
		if errs[i] != nil {
			logger.Error("fetch failed", "url", targets[i].Redacted(), "err", errs[i])
			failed++
			continue
		}
		if err := writeResponse(w, resp, *include); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(targets))
	}
	return nil
}

// template is the request shape shared by every URL on the command line.
type template struct {
	method  http1.Method
	version http1.Version
	headers [][2]string
	body    []byte
}

func newTemplate(method string, headers []string, data string, http10 bool) (*template, error) {
	t := &template{method: http1.MethodGet, version: http1.HTTP11}
	if data != "" {
		t.method = http1.MethodPost
		t.body = []byte(data)
	}
	if method != "" {
		m, err := http1.ParseMethod(method)
		if err != nil {
			return nil, fmt.Errorf("invalid --method: %w", err)
		}
		t.method = m
	}
	if http10 {
		t.version = http1.HTTP10
	}

	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --header %q: expected 'Name: value'", h)
		}
		t.headers = append(t.headers, [2]string{k, strings.TrimSpace(v)})
	}
	return t, nil
}

func (t *template) request(target *uri.URI) *http1.Request {
	req := http1.NewRequest(target)
	req.Method = t.method
	req.Version = t.version
	for _, h := range t.headers {
		req.Header.Insert(h[0], h[1])
	}
	if t.body != nil {
		req.SetBody(t.body)
	}
	return req
}

func writeResponse(w io.Writer, resp *client.Response, include bool) error {
	if include {
		if _, err := fmt.Fprintf(w, "%s %d %s\r\n", resp.Version, resp.StatusCode, resp.Reason); err != nil {
			return err
		}
		for k, v := range resp.Header.All() {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
	}
	_, err := w.Write(resp.Body)
	return err
}

// parseProxy returns nil for a direct connection.
func parseProxy(s string) (*uri.URI, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "direct", "direct://":
		return nil, nil
	}
	return uri.Parse(s)
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositive(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositive(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositive(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(keepIdle) * time.Second,
		Interval: time.Duration(keepIntvl) * time.Second,
		Count:    keepCnt,
	}, nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultProxy() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "direct://"
}
