package http1

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/die-net/proxyget/internal/addr"
	"github.com/die-net/proxyget/internal/httperr"
	"github.com/die-net/proxyget/internal/uri"
)

// Request is an HTTP/1.x request as it goes on the wire.
type Request struct {
	Method  Method
	Target  string
	Header  *Headers
	Version Version
	Body    []byte
}

// NewRequest builds a GET for u with origin-form target and the Host and
// Connection: Close headers set.
func NewRequest(u *uri.URI) *Request {
	return &Request{
		Method:  MethodGet,
		Target:  u.Resource(),
		Header:  NewHeaders(hostHeader(u)),
		Version: HTTP11,
	}
}

// hostHeader is u.HostHeader with an internationalized domain converted to
// its ASCII form.
func hostHeader(u *uri.URI) string {
	hh := u.HostHeader()
	a, err := u.Addr()
	if err != nil || a.Kind() != addr.Domain {
		return hh
	}
	ascii, err := a.ASCII()
	if err != nil {
		return hh
	}
	return ascii + strings.TrimPrefix(hh, u.Host())
}

// SetBody sets the body and its Content-Length.
func (r *Request) SetBody(body []byte) {
	r.Body = body
	r.Header.Insert("Content-Length", strconv.Itoa(len(body)))
}

// Bytes serializes r as
//
//	METHOD SP request-target SP VERSION CRLF
//	(Key: Value CRLF)*
//	CRLF
//	[body]
func (r *Request) Bytes() ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(r.Method.String())
	b.WriteByte(' ')
	b.WriteString(r.Target)
	b.WriteByte(' ')
	b.WriteString(r.Version.String())
	b.WriteString("\r\n")
	for k, v := range r.Header.All() {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(r.Body)
	return []byte(b.String()), nil
}

// WriteTo writes the serialized request to w.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	msg, err := r.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(msg)
	return int64(n), err
}

func (r *Request) validate() error {
	if r.Target == "" || strings.ContainsAny(r.Target, " \r\n") {
		return httperr.New(httperr.ParseHeaders, "request target "+strconv.Quote(r.Target), nil)
	}
	for k, v := range r.Header.All() {
		if !httpguts.ValidHeaderFieldName(k) {
			return httperr.New(httperr.ParseHeaders, k, nil)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return httperr.New(httperr.ParseHeaders, k+": "+v, nil)
		}
		if strings.EqualFold(k, "Host") && !httpguts.ValidHostHeader(v) {
			return httperr.New(httperr.ParseHeaders, k+": "+v, nil)
		}
	}
	return nil
}
