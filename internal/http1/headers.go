package http1

import (
	"iter"
	"net/textproto"
	"strings"

	"github.com/die-net/proxyget/internal/httperr"
)

type field struct {
	key   string
	value string
}

// Headers holds one value per field name. Names compare case-insensitively
// and are kept in canonical form; iteration follows insertion order. The
// zero value is ready to use.
type Headers struct {
	fields []field
}

// NewHeaders seeds a container with Host and Connection: Close, the two
// fields every request carries.
func NewHeaders(host string) *Headers {
	h := &Headers{fields: make([]field, 0, 4)}
	h.Insert("Host", host)
	h.Insert("Connection", "Close")
	return h
}

func (h *Headers) index(key string) int {
	for i, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			return i
		}
	}
	return -1
}

// Get returns the value stored for key.
func (h *Headers) Get(key string) (string, bool) {
	if i := h.index(key); i >= 0 {
		return h.fields[i].value, true
	}
	return "", false
}

// Insert stores value under key, returning the value it replaced. A
// replaced field keeps its position.
func (h *Headers) Insert(key, value string) (string, bool) {
	if i := h.index(key); i >= 0 {
		prev := h.fields[i].value
		h.fields[i].value = value
		return prev, true
	}
	h.fields = append(h.fields, field{key: textproto.CanonicalMIMEHeaderKey(key), value: value})
	return "", false
}

// Del removes key and reports whether it was present.
func (h *Headers) Del(key string) bool {
	i := h.index(key)
	if i < 0 {
		return false
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	return true
}

func (h *Headers) Len() int { return len(h.fields) }

// All yields every field in insertion order.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, f := range h.fields {
			if !yield(f.key, f.value) {
				return
			}
		}
	}
}

func (h *Headers) Clone() *Headers {
	return &Headers{fields: append([]field(nil), h.fields...)}
}

// ParseHeaders parses a block of "Key: Value" lines. Keys are split at the
// first ':' and both sides are trimmed. A later duplicate replaces an earlier
// one.
func ParseHeaders(block string) (*Headers, error) {
	h := &Headers{}
	block = strings.TrimSpace(block)
	if block == "" {
		return h, nil
	}

	for line := range strings.Lines(block) {
		line = strings.TrimRight(line, "\r\n")
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, httperr.New(httperr.ParseHeaders, line, nil)
		}
		h.Insert(key, strings.TrimSpace(value))
	}
	return h, nil
}
