package core

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Base URLs for the Binance USD-M futures REST API. The testnet mirrors
// production endpoints with non-real funds.
const (
	ProductionBaseURL = "https://fapi.binance.com"
	TestnetBaseURL    = "https://testnet.binancefuture.com"
)

// Credentials holds API authentication material. The secret key is
// write-only: it is used exclusively as the signing key and must never be
// serialized, logged, or echoed.
type Credentials struct {
	// APIKey is the public key identifier, sent as the X-MBX-APIKEY header.
	APIKey string
	// SecretKey is the private signing key.
	SecretKey string
}

// NewCredentials trims and validates the key pair. Empty or
// whitespace-only material is a configuration error.
func NewCredentials(apiKey, secretKey string) (*Credentials, error) {
	apiKey = strings.TrimSpace(apiKey)
	secretKey = strings.TrimSpace(secretKey)
	if apiKey == "" || secretKey == "" {
		return nil, NewError(KindConfig, "API key and secret must be provided (flag or env)")
	}
	return &Credentials{APIKey: apiKey, SecretKey: secretKey}, nil
}

// String masks the key material so an accidental %v or %s print never
// leaks it. The secret is never shown, masked or otherwise.
func (c *Credentials) String() string {
	return "Credentials{APIKey:" + maskKey(c.APIKey) + "}"
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Config contains all options for one invocation: target environment,
// credentials, timeouts, and the client-side request budget.
type Config struct {
	// Testnet selects the futures testnet host instead of production.
	Testnet bool `json:"testnet"`
	// Credentials authenticate signed endpoints. Optional for public-only use.
	Credentials *Credentials `json:"-"`

	// Timeout is the maximum duration of a single HTTP round trip.
	// Every call is bounded; the client never waits indefinitely.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`
	// RecvWindow bounds how stale a signed request may be before the
	// server rejects it.
	RecvWindow time.Duration `json:"recv_window" validate:"min=1ms,max=60s"`

	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`
}

// DefaultConfig returns a Config with production host, 10s timeout, 5s
// recvWindow, and the documented 1200 requests/minute budget.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           10 * time.Second,
		RecvWindow:        5 * time.Second,
		RateLimitRequests: 1200,
		RateLimitPeriod:   time.Minute,
	}
}

// BaseURL resolves the REST host from the testnet flag.
func (c *Config) BaseURL() string {
	if c.Testnet {
		return TestnetBaseURL
	}
	return ProductionBaseURL
}

var validate = validator.New()

// Validate checks the config against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return NewError(KindConfig, "invalid config: %v", err)
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithTestnet selects the testnet host and returns the config for chaining.
func (c *Config) WithTestnet(testnet bool) *Config {
	c.Testnet = testnet
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRecvWindow sets the signed-request freshness window and returns the
// config for chaining.
func (c *Config) WithRecvWindow(window time.Duration) *Config {
	c.RecvWindow = window
	return c
}
