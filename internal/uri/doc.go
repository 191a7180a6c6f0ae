package uri

// Package uri parses absolute URIs of the form
//
//	scheme:[//][userinfo@]host[:port][/path][?query][#fragment]
//
// into a single owned buffer plus RangeIndex offsets, so every accessor
// returns a substring of the normalized input without copying. Parsing
// removes all whitespace and lower-cases the scheme; nothing else is
// decoded or normalized. Host validation beyond IPv6 literals is lazy and
// happens when the host is classified (see Addr).
