package testutil

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// StartRawHTTPServer accepts a single connection, reads one HTTP request
// (head plus Content-Length body), writes response verbatim, and closes. The
// request as received is delivered on the returned channel.
func StartRawHTTPServer(t *testing.T, ctx context.Context, response string) (net.Listener, <-chan string) {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	requests := make(chan string, 1)
	var wg sync.WaitGroup
	wg.Go(func() {
		defer close(requests)

		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()

		req, err := readRequest(bufio.NewReader(c))
		if err != nil {
			return
		}
		requests <- req
		_, _ = io.WriteString(c, response)
	})
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})

	return ln, requests
}

func readRequest(br *bufio.Reader) (string, error) {
	var head strings.Builder
	length := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return "", err
		}
		head.WriteString(line)
		if line == "\r\n" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok && textproto.CanonicalMIMEHeaderKey(k) == "Content-Length" {
			length, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return "", err
	}
	return head.String() + string(body), nil
}
