package client

import (
	"context"
	"fmt"

	"github.com/die-net/proxyget/internal/http1"
	"github.com/die-net/proxyget/internal/transport"
	"github.com/die-net/proxyget/internal/uri"
)

// Client fetches one URL per call over a fresh connection.
type Client struct {
	Config transport.Config

	// Proxy, when set, is used for every request.
	Proxy *uri.URI
}

// Response is a response head together with its body.
type Response struct {
	*http1.Response
	Body []byte
}

// Get fetches rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	target, err := uri.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, target, http1.NewRequest(target))
}

// Do connects to target, sends req and reads the whole response. The
// request-target and proxy headers of req are set for the connection.
func (c *Client) Do(ctx context.Context, target *uri.URI, req *http1.Request) (*Response, error) {
	t, err := transport.Connect(ctx, c.Config, target, c.Proxy)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	t.Prepare(req, target)
	if err := t.SendRequest(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", target.Redacted(), err)
	}

	head, err := t.ReadResponse()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target.Redacted(), err)
	}
	resp := &Response{Response: head}
	if !hasBody(req.Method, head.StatusCode) {
		return resp, nil
	}

	resp.Body, err = t.ReadBody(head)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", target.Redacted(), err)
	}
	return resp, nil
}

// hasBody reports whether a response may carry a body (RFC 9112 6.3).
func hasBody(m http1.Method, code http1.StatusCode) bool {
	switch {
	case m == http1.MethodHead:
		return false
	case code.IsInfo(), code == 204, code == 304:
		return false
	default:
		return true
	}
}
