package socks5

// Package socks5 implements the client side of a SOCKS5 CONNECT handshake
// (RFC 1928, with RFC 1929 username/password authentication).
//
// Requests are written with the wire types from github.com/txthinking/socks5.
// Replies are read by hand so every failure maps onto an httperr kind: the
// library's reply readers collapse them into plain errors.
//
// The handshake runs on the raw connection before any TLS is layered on top,
// and reads exactly the reply bytes so nothing of the tunnelled stream is
// consumed.
