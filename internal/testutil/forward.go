package testutil

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"sync"
	"testing"
	"time"
)

// ProxyRequest is what a ForwardProxy saw of one request.
type ProxyRequest struct {
	Method             string
	RequestURI         string
	Host               string
	ProxyAuthorization string
}

// ForwardProxy is an HTTP forward proxy (absolute-form requests, no CONNECT)
// built on httputil.ReverseProxy.
type ForwardProxy struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ProxyRequest
}

// StartForwardProxy starts a plain-HTTP forward proxy for the test.
func StartForwardProxy(t *testing.T) *ForwardProxy {
	t.Helper()
	p := &ForwardProxy{}
	p.Server = httptest.NewServer(p.handler())
	t.Cleanup(p.Close)
	return p
}

// StartTLSForwardProxy is like StartForwardProxy but the proxy itself
// listens with TLS.
func StartTLSForwardProxy(t *testing.T) *ForwardProxy {
	t.Helper()
	p := &ForwardProxy{}
	p.Server = httptest.NewTLSServer(p.handler())
	t.Cleanup(p.Close)
	return p
}

// Requests returns the requests seen so far.
func (p *ForwardProxy) Requests() []ProxyRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProxyRequest(nil), p.requests...)
}

func (p *ForwardProxy) handler() http.Handler {
	rp := &httputil.ReverseProxy{
		Director: func(r *http.Request) {
			// Forward-proxy handling: ensure URL is absolute and points at the origin server.
			if r.URL.Scheme == "" {
				r.URL.Scheme = "http"
			}
			if r.URL.Host == "" {
				r.URL.Host = r.Host
			}
			r.Host = r.URL.Host

			// Ask that X-Forwarded-For not be set.
			r.Header["X-Forwarded-For"] = nil
		},
		Transport: &http.Transport{
			// Origins in tests use httptest certificates.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // Test fixture.
		},
		FlushInterval: 10 * time.Millisecond,
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.requests = append(p.requests, ProxyRequest{
			Method:             r.Method,
			RequestURI:         r.RequestURI,
			Host:               r.Host,
			ProxyAuthorization: r.Header.Get("Proxy-Authorization"),
		})
		p.mu.Unlock()

		if r.Method == http.MethodConnect {
			http.Error(w, "CONNECT not supported", http.StatusMethodNotAllowed)
			return
		}
		rp.ServeHTTP(w, r)
	})
}
