package core

import (
	"net/url"
	"strings"
)

// Params is an ordered list of query parameters. The exchange's signature
// is computed over the encoded string, so insertion order must survive
// verbatim from caller to wire; a plain map would lose it.
type Params struct {
	pairs []pair
}

type pair struct {
	key   string
	value string
}

// NewParams returns an empty parameter list.
func NewParams() *Params {
	return &Params{}
}

// Set appends the key/value pair, or replaces the value in place when the
// key already exists so its position is preserved.
func (p *Params) Set(key, value string) *Params {
	for i := range p.pairs {
		if p.pairs[i].key == key {
			p.pairs[i].value = value
			return p
		}
	}
	p.pairs = append(p.pairs, pair{key: key, value: value})
	return p
}

// Get returns the value for key and whether it was present.
func (p *Params) Get(key string) (string, bool) {
	for _, kv := range p.pairs {
		if kv.key == key {
			return kv.value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Len returns the number of pairs.
func (p *Params) Len() int {
	return len(p.pairs)
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	keys := make([]string, len(p.pairs))
	for i, kv := range p.pairs {
		keys[i] = kv.key
	}
	return keys
}

// Clone returns an independent copy preserving order.
func (p *Params) Clone() *Params {
	clone := &Params{pairs: make([]pair, len(p.pairs))}
	copy(clone.pairs, p.pairs)
	return clone
}

// Encode builds the canonical query string: url-escaped key=value pairs
// joined with "&" in insertion order. This exact string is what gets
// signed, so it must also be what gets sent.
func (p *Params) Encode() string {
	if len(p.pairs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}
