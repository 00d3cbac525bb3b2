// Package sign implements the Binance request signing scheme: HMAC-SHA256
// over the ordered query string, hex-encoded, appended as the final
// "signature" parameter.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"futures-trader/pkg/core"
)

// Signer produces signed parameter sets for authenticated endpoints.
// The secret never leaves the signer; only the derived signature travels.
type Signer struct {
	secret     string
	recvWindow time.Duration
	now        func() time.Time
	offset     time.Duration
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source. Signing is deterministic for a
// fixed clock, which tests rely on.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New creates a Signer for the given secret. recvWindow bounds how stale
// the signed request may be before the server rejects it.
func New(secret string, recvWindow time.Duration, opts ...Option) *Signer {
	s := &Signer{
		secret:     secret,
		recvWindow: recvWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOffset records the server-minus-local clock skew. Subsequent
// timestamps are shifted by it so signed requests stay inside the
// recvWindow even when the local clock drifts. Not safe for concurrent
// use with Sign; the workflow sets it once before any signed call.
func (s *Signer) SetOffset(offset time.Duration) {
	s.offset = offset
}

// Offset returns the currently applied clock skew.
func (s *Signer) Offset() time.Duration {
	return s.offset
}

// Sign returns a copy of params with timestamp, recvWindow, and signature
// appended, signature last. The input is never mutated. Params that
// already carry a timestamp or signature are a caller programming error:
// overwriting could mask a stale timestamp, so Sign refuses instead.
//
// Any mutation of the returned params invalidates the signature, so
// signing must be the last step before transport.
func (s *Signer) Sign(params *core.Params) (*core.Params, error) {
	if s.secret == "" {
		return nil, core.NewError(core.KindSigning, "secret key is required for signing")
	}
	if params == nil {
		params = core.NewParams()
	}
	if params.Has("timestamp") {
		return nil, core.NewError(core.KindSigning, "params already contain \"timestamp\"")
	}
	if params.Has("signature") {
		return nil, core.NewError(core.KindSigning, "params already contain \"signature\"")
	}

	signed := params.Clone()
	ts := s.now().Add(s.offset).UnixMilli()
	signed.Set("timestamp", strconv.FormatInt(ts, 10))
	signed.Set("recvWindow", strconv.FormatInt(s.recvWindow.Milliseconds(), 10))
	signed.Set("signature", hmacSHA256(signed.Encode(), s.secret))
	return signed, nil
}

func hmacSHA256(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
