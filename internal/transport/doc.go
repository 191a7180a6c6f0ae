// Package transport establishes the byte stream a request is written to.
//
// Connect picks one of three strategies from the proxy URI:
//
//   - no proxy: connect to the target, TLS when the target is https;
//   - http or https proxy: connect to the proxy (TLS when the proxy is
//     https) and send requests in absolute-URI form. There is no CONNECT;
//   - socks5 or socks5h proxy: connect to the proxy, run the SOCKS5
//     handshake for the target, then TLS to the target when it is https.
//
// socks5 resolves the target host locally and hands the proxy an IP
// address. socks5h hands the proxy the domain name.
package transport
