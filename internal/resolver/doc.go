package resolver

// Package resolver looks up host addresses for the dialer and for SOCKS5
// proxies that expect the client to resolve names itself.
//
// System defers to the platform resolver. DNS talks to one configured server
// with github.com/miekg/dns, which lets the CLI pin lookups to a resolver
// that differs from the host's.
