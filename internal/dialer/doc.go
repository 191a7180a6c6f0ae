package dialer

// Package dialer opens the outbound TCP connection for proxyget, either to
// the origin or to the configured proxy.
//
// It resolves the host once and walks the resulting addresses in order, so a
// dead first address does not fail the request. Socket options (keepalive,
// Nagle, interface binding) are applied here and nowhere else.
