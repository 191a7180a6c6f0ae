package uri

import (
	"strings"
	"unicode/utf8"
)

// RangeIndex is a half-open [Start, End) byte range into the buffer owned by
// a URI. Components are always read through a RangeIndex so that accessors
// return substrings of one shared string instead of copies.
type RangeIndex struct {
	Start int
	End   int
}

// newRangeIndex checks Start <= End <= len(buf) and that both ends fall on
// UTF-8 boundaries.
func newRangeIndex(buf string, start, end int) (RangeIndex, bool) {
	if start < 0 || start > end || end > len(buf) {
		return RangeIndex{}, false
	}
	if !onBoundary(buf, start) || !onBoundary(buf, end) {
		return RangeIndex{}, false
	}
	return RangeIndex{Start: start, End: end}, true
}

func onBoundary(buf string, i int) bool {
	return i == len(buf) || utf8.RuneStart(buf[i])
}

func (r RangeIndex) Len() int { return r.End - r.Start }

// In returns the substring of buf covered by r.
func (r RangeIndex) In(buf string) string { return buf[r.Start:r.End] }

// optRange is a RangeIndex that may be absent.
type optRange struct {
	RangeIndex
	ok bool
}

func some(r RangeIndex) optRange { return optRange{RangeIndex: r, ok: true} }

func (o optRange) in(buf string) (string, bool) {
	if !o.ok {
		return "", false
	}
	return o.In(buf), true
}

// splitMode controls how splitAt treats the text around a separator.
type splitMode struct {
	last       bool // split at the final occurrence instead of the first
	keepSep    bool // the part after starts with the separator's last byte
	allowEmpty bool // keep an empty part after the separator
}

// splitAt splits r around sep. The part before ends one byte before the end
// of the separator, so a two-byte separator such as "]:" leaves its first
// byte in the part before. An empty part before is dropped. When sep does
// not occur, all of r is returned as before, or nothing if r is empty.
func splitAt(buf string, r optRange, sep string, mode splitMode) (before, after optRange) {
	if !r.ok {
		return optRange{}, optRange{}
	}

	s := r.In(buf)
	i := strings.Index(s, sep)
	if mode.last {
		i = strings.LastIndex(s, sep)
	}
	if i < 0 {
		if r.Len() == 0 {
			return optRange{}, optRange{}
		}
		return r, optRange{}
	}

	mid := r.Start + i + len(sep)
	if b, ok := newRangeIndex(buf, r.Start, mid-1); ok && b.Len() > 0 {
		before = some(b)
	}

	start := mid
	if mode.keepSep {
		start--
	}
	if a, ok := newRangeIndex(buf, start, r.End); ok && (mode.allowEmpty || a.Len() > 0) {
		after = some(a)
	}
	return before, after
}
