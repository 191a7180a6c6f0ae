// Package stream provides the plain/TLS connection used for one HTTP
// exchange.
//
// Callers hold a *Stream and never need to know which variant it is; Kind
// is only exposed for logging. ReadHead and ReadBody implement the two read
// patterns the HTTP/1.x codec needs: everything up to the blank line, then
// exactly Content-Length bytes.
package stream
