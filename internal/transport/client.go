// Package transport issues signed and public HTTP calls against the
// futures REST API and maps HTTP-level and exchange-level failures into
// the typed error taxonomy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"futures-trader/internal/ratelimit"
	"futures-trader/internal/sign"
	"futures-trader/pkg/core"
)

// Client wraps a resty HTTP client with signing, rate limiting, and error
// mapping. The API key travels as the X-MBX-APIKEY header; the secret only
// ever travels as the derived signature. A failed call is surfaced
// immediately: the client performs exactly one network attempt and leaves
// any retry decision to the caller.
type Client struct {
	http    *resty.Client
	signer  *sign.Signer
	apiKey  string
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

// Config holds the transport-level settings.
type Config struct {
	BaseURL string        `validate:"required,url"`
	APIKey  string        `validate:"omitempty"`
	Timeout time.Duration `validate:"min=1ms"`
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for request/response tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithLimiter sets the client-side request budget, waited before every call.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// New creates a transport client. The signer may be nil for public-only use;
// signed calls then fail with a configuration error.
func New(cfg *Config, signer *sign.Signer, opts ...Option) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, core.NewError(core.KindConfig, "invalid transport config: %v", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(cfg.Timeout)
	// A lost order acknowledgment is indistinguishable from a failed order;
	// retrying here could submit the order twice.
	httpClient.SetRetryCount(0)

	c := &Client{
		http:   httpClient,
		signer: signer,
		apiKey: cfg.APIKey,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger := c.logger
	httpClient.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})
	httpClient.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return c, nil
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// Public issues an unauthenticated call. Public endpoints must not be
// signed: caller-supplied signature material here indicates misuse.
func (c *Client) Public(ctx context.Context, method, path string, params *core.Params) ([]byte, error) {
	if params != nil && (params.Has("signature") || params.Has("timestamp")) {
		return nil, core.NewError(core.KindConfig, "public endpoint %s must not carry signed parameters", path)
	}
	return c.execute(ctx, method, path, params, false)
}

// Signed signs the parameters and issues the call with the API key header
// attached. Signing happens last; params are not mutated.
func (c *Client) Signed(ctx context.Context, method, path string, params *core.Params) ([]byte, error) {
	if c.signer == nil || c.apiKey == "" {
		return nil, core.NewError(core.KindConfig, "no credentials configured for signed endpoint %s", path)
	}
	signed, err := c.signer.Sign(params)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, method, path, signed, true)
}

func (c *Client) execute(ctx context.Context, method, path string, params *core.Params, authenticated bool) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, core.WrapTransport(fmt.Errorf("rate limit wait: %w", err), errors.Is(err, context.DeadlineExceeded))
		}
	}

	// The signature covers the encoded string byte-for-byte, so the query
	// is appended pre-encoded. Resty's query map would re-sort it and
	// break signature verification.
	if params != nil && params.Len() > 0 {
		path += "?" + params.Encode()
	}

	req := c.http.R().SetContext(ctx)
	if authenticated {
		req.SetHeader("X-MBX-APIKEY", c.apiKey)
	}

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = req.Get(path)
	case http.MethodPost:
		resp, err = req.Post(path)
	case http.MethodDelete:
		resp, err = req.Delete(path)
	default:
		return nil, core.NewError(core.KindConfig, "unsupported http method: %s", method)
	}
	if err != nil {
		return nil, core.WrapTransport(err, isTimeout(err))
	}

	if resp.StatusCode() >= 400 {
		return nil, parseExchangeError(resp)
	}

	return resp.Bytes(), nil
}

// apiError is the structured error body the exchange returns alongside
// non-2xx statuses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func parseExchangeError(resp *resty.Response) *core.Error {
	var body apiError
	if err := sonic.Unmarshal(resp.Bytes(), &body); err == nil && body.Code != 0 {
		return core.NewExchangeError(resp.StatusCode(), body.Code, body.Msg)
	}
	return core.NewExchangeError(resp.StatusCode(), 0, "HTTP error: "+resp.Status())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Decode unmarshals a success body into the endpoint's schema. A mismatch
// fails closed rather than letting callers read fields optimistically.
func Decode(data []byte, v any) error {
	if err := sonic.Unmarshal(data, v); err != nil {
		return core.WrapProtocol(err)
	}
	return nil
}

type serverTime struct {
	ServerTime int64 `json:"serverTime"`
}

// ServerTime fetches the exchange clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	body, err := c.Public(ctx, http.MethodGet, "/fapi/v1/time", nil)
	if err != nil {
		return time.Time{}, err
	}
	var st serverTime
	if err := Decode(body, &st); err != nil {
		return time.Time{}, err
	}
	if st.ServerTime == 0 {
		return time.Time{}, core.NewError(core.KindProtocol, "server time missing from response")
	}
	return time.UnixMilli(st.ServerTime), nil
}

// SyncClock measures server-minus-local skew and applies it to the signer
// so signed timestamps stay inside the recvWindow. Skew beyond 5s is
// logged: it usually means the local clock is wrong.
func (c *Client) SyncClock(ctx context.Context) error {
	if c.signer == nil {
		return core.NewError(core.KindConfig, "no signer to synchronize")
	}
	remote, err := c.ServerTime(ctx)
	if err != nil {
		return err
	}
	offset := remote.Sub(time.Now())
	if offset > 5*time.Second || offset < -5*time.Second {
		c.logger.Warn().
			Dur("offset", offset).
			Msg("local clock differs from exchange server, applying offset")
	}
	c.signer.SetOffset(offset)
	return nil
}
