// Package http1 frames HTTP/1.0 and HTTP/1.1 requests and parses response
// heads. Bodies are delimited by Content-Length only.
package http1
