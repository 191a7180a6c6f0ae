package stream

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/die-net/proxyget/internal/httperr"
)

// Kind tells which of the two stream variants is in use.
type Kind uint8

const (
	Plain Kind = iota
	TLS
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case TLS:
		return "tls"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DefaultMaxHeadBytes bounds ReadHead when MaxHeadBytes is zero.
const DefaultMaxHeadBytes = 64 << 10

// bodyChunk is the most ReadBody allocates before any body bytes arrive.
const bodyChunk = 32 << 10

var headTerminator = []byte("\r\n\r\n")

// Stream is a byte-duplex connection that is either plain TCP or TLS over
// TCP. Reads go through a buffer that ReadHead and ReadBody share, so bytes
// past the response head are never lost. Writes are buffered until Flush.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	kind Kind
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	// MaxHeadBytes caps ReadHead. Zero means DefaultMaxHeadBytes.
	MaxHeadBytes int

	// MaxBodyBytes caps ReadBody. Zero means no cap.
	MaxBodyBytes int64
}

// NewPlain wraps an established TCP connection.
func NewPlain(conn net.Conn) *Stream {
	return newStream(Plain, conn)
}

// NewTLS runs a client handshake over conn with SNI set to domain. base may
// be nil; it is cloned, never modified. On failure conn is closed and the
// error carries ErrTLS.
func NewTLS(ctx context.Context, domain string, conn net.Conn, base *tls.Config) (*Stream, error) {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	cfg.ServerName = domain

	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, httperr.New(httperr.ErrTLS, domain, err)
	}
	return newStream(TLS, tc), nil
}

func newStream(kind Kind, conn net.Conn) *Stream {
	return &Stream{
		kind: kind,
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

func (s *Stream) Kind() Kind { return s.kind }

// Conn returns the underlying connection, a *tls.Conn for the TLS variant.
func (s *Stream) Conn() net.Conn { return s.conn }

func (s *Stream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, httperr.IO("write", err)
	}
	return n, nil
}

func (s *Stream) Flush() error {
	if err := s.w.Flush(); err != nil {
		return httperr.IO("flush", err)
	}
	return nil
}

func (s *Stream) SetDeadline(t time.Time) error { return s.conn.SetDeadline(t) }

func (s *Stream) Close() error { return s.conn.Close() }

// ReadHead reads up to and including the first CRLFCRLF. Hitting EOF first
// yields io.ErrUnexpectedEOF, additionally tagged EmptyResponse when nothing
// at all was read.
func (s *Stream) ReadHead() ([]byte, error) {
	limit := s.MaxHeadBytes
	if limit <= 0 {
		limit = DefaultMaxHeadBytes
	}

	var head []byte
	for {
		line, err := s.r.ReadSlice('\n')
		head = append(head, line...)
		if len(head) > limit {
			return nil, httperr.New(httperr.HeadTooLarge, strconv.Itoa(limit), nil)
		}

		switch {
		case err == nil:
			if bytes.HasSuffix(head, headTerminator) {
				return head, nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF):
			if len(head) == 0 {
				return nil, httperr.New(httperr.EmptyResponse, "", io.ErrUnexpectedEOF)
			}
			return nil, httperr.IO("read head", io.ErrUnexpectedEOF)
		default:
			return nil, httperr.IO("read head", err)
		}
	}
}

// ReadBody reads exactly n bytes. The buffer grows with the bytes actually
// received, so n is never trusted for an allocation up front.
func (s *Stream) ReadBody(n int64) ([]byte, error) {
	if n < 0 {
		return nil, httperr.New(httperr.MissingContentLength, strconv.FormatInt(n, 10), nil)
	}
	if s.MaxBodyBytes > 0 && n > s.MaxBodyBytes {
		return nil, httperr.New(httperr.BodyTooLarge, strconv.FormatInt(n, 10), nil)
	}

	var body bytes.Buffer
	body.Grow(int(min(n, bodyChunk)))
	if _, err := io.CopyN(&body, s.r, n); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, httperr.IO("read body", err)
	}
	return body.Bytes(), nil
}
