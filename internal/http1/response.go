package http1

import (
	"strconv"
	"strings"

	"github.com/die-net/proxyget/internal/httperr"
)

// Response is a parsed response head.
type Response struct {
	Version    string
	StatusCode StatusCode
	Reason     string
	Header     *Headers
}

// ParseResponseHead parses "VERSION SP CODE [SP REASON]" followed by header
// lines. A missing reason is filled in from the standard table, or
// "Unknown".
func ParseResponseHead(head []byte) (*Response, error) {
	s := strings.TrimSpace(string(head))
	if s == "" {
		return nil, httperr.New(httperr.EmptyResponse, "", nil)
	}

	statusLine, block, _ := strings.Cut(s, "\n")
	statusLine = strings.TrimSpace(statusLine)

	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return nil, httperr.New(httperr.MalformedStatus, statusLine, nil)
	}
	code, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, httperr.New(httperr.MalformedStatus, statusLine, err)
	}

	resp := &Response{Version: parts[0], StatusCode: StatusCode(code)}
	switch reason, ok := resp.StatusCode.Reason(); {
	case len(parts) == 3:
		resp.Reason = parts[2]
	case ok:
		resp.Reason = reason
	default:
		resp.Reason = "Unknown"
	}

	resp.Header, err = ParseHeaders(block)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ContentLength returns the parsed Content-Length header.
func (r *Response) ContentLength() (int64, error) {
	v, ok := r.Header.Get("Content-Length")
	if !ok {
		return 0, httperr.New(httperr.MissingContentLength, "", nil)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, httperr.New(httperr.MissingContentLength, v, err)
	}
	return n, nil
}

// HeadReader is the part of a stream the codec reads from.
type HeadReader interface {
	ReadHead() ([]byte, error)
	ReadBody(n int64) ([]byte, error)
}

// ReadResponse reads and parses one response head from r.
func ReadResponse(r HeadReader) (*Response, error) {
	head, err := r.ReadHead()
	if err != nil {
		return nil, err
	}
	return ParseResponseHead(head)
}

// ReadBody reads exactly Content-Length bytes. Without a usable
// Content-Length it fails before reading anything.
func ReadBody(r HeadReader, resp *Response) ([]byte, error) {
	n, err := resp.ContentLength()
	if err != nil {
		return nil, err
	}
	return r.ReadBody(n)
}
