package main

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/die-net/proxyget/internal/client"
	"github.com/die-net/proxyget/internal/http1"
	"github.com/die-net/proxyget/internal/httperr"
	"github.com/die-net/proxyget/internal/uri"
)

func TestParseTCPKeepAlive(t *testing.T) {
	tests := []struct {
		in      string
		want    net.KeepAliveConfig
		wantErr bool
	}{
		{in: "on", want: net.KeepAliveConfig{Enable: true}},
		{in: " OFF ", want: net.KeepAliveConfig{}},
		{in: "45:15:3", want: net.KeepAliveConfig{Enable: true, Idle: 45 * time.Second, Interval: 15 * time.Second, Count: 3}},
		{in: "", wantErr: true},
		{in: "45:15", wantErr: true},
		{in: "0:15:3", wantErr: true},
		{in: "45:x:3", wantErr: true},
		{in: "45:15:-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTCPKeepAlive(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v got %+v", tt.want, got)
			}
		})
	}
}

func TestParseProxy(t *testing.T) {
	for _, s := range []string{"", "direct", "DIRECT://", " direct:// "} {
		p, err := parseProxy(s)
		if err != nil || p != nil {
			t.Fatalf("%q: expected direct got %v %v", s, p, err)
		}
	}

	p, err := parseProxy("socks5h://u:p@127.0.0.1:1080")
	if err != nil {
		t.Fatal(err)
	}
	if p.Scheme() != "socks5h" || p.Redacted() != "socks5h://u:*@127.0.0.1:1080" {
		t.Fatalf("unexpected proxy %s", p.Redacted())
	}

	if _, err := parseProxy("127.0.0.1:1080"); !errors.Is(err, httperr.EmptyScheme) {
		t.Fatalf("expected %v got %v", httperr.EmptyScheme, err)
	}
}

func TestTemplateRequest(t *testing.T) {
	target := uri.MustParse("http://example.com/submit")

	tests := []struct {
		name   string
		method string
		hdrs   []string
		data   string
		http10 bool
		want   string
	}{
		{
			name: "get",
			want: "GET /submit HTTP/1.1\r\nHost: example.com\r\nConnection: Close\r\n\r\n",
		},
		{
			name: "data_implies_post",
			data: "a=1",
			want: "POST /submit HTTP/1.1\r\nHost: example.com\r\nConnection: Close\r\nContent-Length: 3\r\n\r\na=1",
		},
		{
			name:   "explicit_method_and_headers",
			method: "put",
			hdrs:   []string{"x-one: 1", "Connection: keep-alive"},
			data:   "x",
			http10: true,
			want:   "PUT /submit HTTP/1.0\r\nHost: example.com\r\nConnection: keep-alive\r\nX-One: 1\r\nContent-Length: 1\r\n\r\nx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := newTemplate(tt.method, tt.hdrs, tt.data, tt.http10)
			if err != nil {
				t.Fatal(err)
			}
			b, err := tmpl.request(target).Bytes()
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Fatalf("expected %q got %q", tt.want, b)
			}
		})
	}
}

func TestNewTemplateErrors(t *testing.T) {
	if _, err := newTemplate("FETCH", nil, "", false); !errors.Is(err, httperr.UnknownMethod) {
		t.Fatalf("expected %v got %v", httperr.UnknownMethod, err)
	}
	if _, err := newTemplate("", []string{"no-colon"}, "", false); err == nil {
		t.Fatal("expected error")
	}
	if _, err := newTemplate("", []string{": value"}, "", false); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteResponse(t *testing.T) {
	h, err := http1.ParseHeaders("Content-Type: text/plain\r\nContent-Length: 2\r\n")
	if err != nil {
		t.Fatal(err)
	}
	resp := &client.Response{
		Response: &http1.Response{Version: "HTTP/1.1", StatusCode: 200, Reason: "OK", Header: h},
		Body:     []byte("hi"),
	}

	var buf bytes.Buffer
	if err := writeResponse(&buf, resp, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hi" {
		t.Fatalf("expected %q got %q", "hi", buf.String())
	}

	buf.Reset()
	if err := writeResponse(&buf, resp, true); err != nil {
		t.Fatal(err)
	}
	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi"
	if buf.String() != want {
		t.Fatalf("expected %q got %q", want, buf.String())
	}
}
