package http1

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/die-net/proxyget/internal/httperr"
	"github.com/die-net/proxyget/internal/uri"
)

// cannedStream serves a fixed head and body, counting body reads.
type cannedStream struct {
	head      string
	body      *bytes.Reader
	bodyReads int
}

func (c *cannedStream) ReadHead() ([]byte, error) {
	if c.head == "" {
		return nil, httperr.New(httperr.EmptyResponse, "", io.ErrUnexpectedEOF)
	}
	return []byte(c.head), nil
}

func (c *cannedStream) ReadBody(n int64) ([]byte, error) {
	c.bodyReads++
	b := make([]byte, n)
	if _, err := io.ReadFull(c.body, b); err != nil {
		return nil, err
	}
	return b, nil
}

func TestReadResponseAndBody(t *testing.T) {
	s := &cannedStream{
		head: "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n",
		body: bytes.NewReader([]byte("hello")),
	}

	resp, err := ReadResponse(s)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || resp.Reason != "OK" || resp.Version != "HTTP/1.1" {
		t.Fatalf("unexpected status %q %d %q", resp.Version, resp.StatusCode, resp.Reason)
	}
	if n, err := resp.ContentLength(); err != nil || n != 5 {
		t.Fatalf("expected 5 got %d (%v)", n, err)
	}

	body, err := ReadBody(s, resp)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("expected %q got %q", "hello", body)
	}
}

func TestReadBodyMissingContentLength(t *testing.T) {
	for _, head := range []string{
		"HTTP/1.1 200 OK\r\n\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: five\r\n\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: -1\r\n\r\n",
	} {
		s := &cannedStream{head: head, body: bytes.NewReader([]byte("hello"))}

		resp, err := ReadResponse(s)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ReadBody(s, resp); !errors.Is(err, httperr.MissingContentLength) {
			t.Fatalf("expected MissingContentLength got %v", err)
		}
		if s.bodyReads != 0 {
			t.Fatalf("expected no body read, got %d", s.bodyReads)
		}
	}
}

func TestReadResponseEmpty(t *testing.T) {
	_, err := ReadResponse(&cannedStream{})
	if !errors.Is(err, httperr.EmptyResponse) {
		t.Fatalf("expected EmptyResponse got %v", err)
	}
}

func TestParseResponseHead(t *testing.T) {
	tests := []struct {
		name    string
		head    string
		code    StatusCode
		reason  string
		wantErr error
	}{
		{name: "reason", head: "HTTP/1.1 404 Nope\r\n\r\n", code: 404, reason: "Nope"},
		{name: "multiword_reason", head: "HTTP/1.0 503 Service Unavailable\r\n\r\n", code: 503, reason: "Service Unavailable"},
		{name: "table_reason", head: "HTTP/1.1 201\r\n\r\n", code: 201, reason: "Created"},
		{name: "unknown_reason", head: "HTTP/1.1 299\r\n\r\n", code: 299, reason: "Unknown"},
		{name: "empty", head: "\r\n\r\n", wantErr: httperr.EmptyResponse},
		{name: "no_code", head: "HTTP/1.1\r\n\r\n", wantErr: httperr.MalformedStatus},
		{name: "bad_code", head: "HTTP/1.1 abc OK\r\n\r\n", wantErr: httperr.MalformedStatus},
		{name: "big_code", head: "HTTP/1.1 70000 OK\r\n\r\n", wantErr: httperr.MalformedStatus},
		{name: "bad_header", head: "HTTP/1.1 200 OK\r\nNoColon\r\n\r\n", wantErr: httperr.ParseHeaders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponseHead([]byte(tt.head))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.code || resp.Reason != tt.reason {
				t.Fatalf("expected %d %q got %d %q", tt.code, tt.reason, resp.StatusCode, resp.Reason)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders("content-type: text/plain\r\nX-Empty:\r\nLocation: http://example.com:8080/\r\ncontent-TYPE:  text/html \r\n")
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 fields got %d", h.Len())
	}
	if v, _ := h.Get("Content-Type"); v != "text/html" {
		t.Fatalf("expected %q got %q", "text/html", v)
	}
	if v, ok := h.Get("x-empty"); !ok || v != "" {
		t.Fatalf("expected empty value got %q (%v)", v, ok)
	}
	if v, _ := h.Get("location"); v != "http://example.com:8080/" {
		t.Fatalf("value split at wrong colon: %q", v)
	}
}

func TestParseHeadersKeySpace(t *testing.T) {
	h, err := ParseHeaders("Content-Length : 5\r\n\tX-Indent: a\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := h.Get("Content-Length"); !ok || v != "5" {
		t.Fatalf("expected %q got %q (%v)", "5", v, ok)
	}
	if v, _ := h.Get("X-Indent"); v != "a" {
		t.Fatalf("expected %q got %q", "a", v)
	}

	resp, err := ParseResponseHead([]byte("HTTP/1.1 200 OK\r\nContent-Length : 5\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n, err := resp.ContentLength(); err != nil || n != 5 {
		t.Fatalf("expected 5 got %d (%v)", n, err)
	}

	if _, err := ParseHeaders(" : value\r\n"); !errors.Is(err, httperr.ParseHeaders) {
		t.Fatalf("expected %v got %v", httperr.ParseHeaders, err)
	}
}

func TestHeaders(t *testing.T) {
	h := NewHeaders("example.com")
	if prev, ok := h.Insert("x-trace-id", "1"); ok {
		t.Fatalf("expected no previous value got %q", prev)
	}
	if prev, ok := h.Insert("HOST", "other"); !ok || prev != "example.com" {
		t.Fatalf("expected previous %q got %q", "example.com", prev)
	}

	var keys []string
	for k := range h.All() {
		keys = append(keys, k)
	}
	if want := []string{"Host", "Connection", "X-Trace-Id"}; !slices.Equal(keys, want) {
		t.Fatalf("expected %v got %v", want, keys)
	}

	if !h.Del("connection") || h.Del("connection") {
		t.Fatal("expected exactly one delete")
	}
	if h.Len() != 2 {
		t.Fatalf("expected 2 got %d", h.Len())
	}

	c := h.Clone()
	c.Insert("X-Only-Clone", "1")
	if _, ok := h.Get("X-Only-Clone"); ok {
		t.Fatal("clone shares storage")
	}
}

func TestNewRequestBytes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "http://example.com", want: "GET / HTTP/1.1\r\nHost: example.com\r\nConnection: Close\r\n\r\n"},
		{raw: "http://example.com:8080/a?b=c", want: "GET /a?b=c HTTP/1.1\r\nHost: example.com:8080\r\nConnection: Close\r\n\r\n"},
		{raw: "https://example.com:443/x", want: "GET /x HTTP/1.1\r\nHost: example.com\r\nConnection: Close\r\n\r\n"},
		{raw: "http://[::1]:8080/", want: "GET / HTTP/1.1\r\nHost: [::1]:8080\r\nConnection: Close\r\n\r\n"},
		{raw: "http://bücher.de/", want: "GET / HTTP/1.1\r\nHost: xn--bcher-kva.de\r\nConnection: Close\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NewRequest(uri.MustParse(tt.raw)).Bytes()
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestRequestWithBody(t *testing.T) {
	req := NewRequest(uri.MustParse("http://example.com/submit"))
	req.Method = MethodPost
	req.Version = HTTP10
	req.SetBody([]byte("a=1"))

	var buf bytes.Buffer
	if _, err := req.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "POST /submit HTTP/1.0\r\nHost: example.com\r\nConnection: Close\r\nContent-Length: 3\r\n\r\na=1"
	if buf.String() != want {
		t.Fatalf("expected %q got %q", want, buf.String())
	}
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "name_space", key: "Bad Name", value: "v"},
		{name: "value_crlf", key: "X-Inject", value: "a\r\nEvil: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(uri.MustParse("http://example.com/"))
			req.Header.Insert(tt.key, tt.value)
			if _, err := req.Bytes(); !errors.Is(err, httperr.ParseHeaders) {
				t.Fatalf("expected ParseHeaders got %v", err)
			}
		})
	}
}

func TestParseMethodAndVersion(t *testing.T) {
	if m, err := ParseMethod("patch"); err != nil || m != MethodPatch {
		t.Fatalf("expected PATCH got %q (%v)", m, err)
	}
	if _, err := ParseMethod("BREW"); !errors.Is(err, httperr.UnknownMethod) {
		t.Fatalf("expected UnknownMethod got %v", err)
	}
	if v, err := ParseVersion("http/1.0"); err != nil || v != HTTP10 {
		t.Fatalf("expected HTTP/1.0 got %v (%v)", v, err)
	}
	if _, err := ParseVersion("HTTP/2"); !errors.Is(err, httperr.UnsupportedVersion) {
		t.Fatalf("expected UnsupportedVersion got %v", err)
	}
}

func TestStatusCodeClasses(t *testing.T) {
	tests := []struct {
		code                                        StatusCode
		info, success, redirect, client, serverErr bool
	}{
		{code: 101, info: true},
		{code: 204, success: true},
		{code: 308, redirect: true},
		{code: 418, client: true},
		{code: 511, serverErr: true},
		{code: 600},
	}

	for _, tt := range tests {
		c := tt.code
		got := []bool{c.IsInfo(), c.IsSuccess(), c.IsRedirect(), c.IsClientError(), c.IsServerError()}
		want := []bool{tt.info, tt.success, tt.redirect, tt.client, tt.serverErr}
		if !slices.Equal(got, want) {
			t.Fatalf("%d: expected %v got %v", c, want, got)
		}
	}
	if r, ok := StatusCode(418).Reason(); !ok || r != "I'm a teapot" {
		t.Fatalf("unexpected reason %q", r)
	}
}
