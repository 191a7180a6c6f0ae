// Package httperr defines the error taxonomy shared by the proxyget
// packages.
//
// Kinds are small integer types (ParseError, ProtocolError, ResponseError)
// plus the ErrIO and ErrTLS sentinels. Every failure is returned as an
// *Error that wraps exactly one kind, so callers can test with errors.Is
// against the kind while the wrapped cause (an *net.OpError,
// io.ErrUnexpectedEOF, ...) stays reachable as well:
//
//	if errors.Is(err, httperr.AuthFailure) { ... }
//	if errors.Is(err, io.ErrUnexpectedEOF) { ... }
package httperr
