package core

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure so callers can decide how to react without
// string-matching messages.
type Kind int

const (
	// KindConfig indicates bad or missing configuration, including misuse
	// of a signed client against a public endpoint.
	KindConfig Kind = iota
	// KindValidation indicates a malformed order request, caught before
	// any network I/O.
	KindValidation
	// KindSigning indicates signer misuse, such as signing parameters that
	// already carry a timestamp or signature.
	KindSigning
	// KindTransport indicates a network-level failure, including timeouts.
	KindTransport
	// KindExchange indicates the exchange returned a structured error
	// response (rate limit, insufficient balance, rejected order).
	KindExchange
	// KindProtocol indicates a success response whose body did not match
	// the expected schema.
	KindProtocol
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	return [...]string{
		"CONFIG",
		"VALIDATION",
		"SIGNING",
		"TRANSPORT",
		"EXCHANGE",
		"PROTOCOL",
	}[k]
}

// Error is the typed failure returned by every operation in this module.
// Secrets never appear in its message.
type Error struct {
	// Kind categorizes the error for programmatic handling.
	Kind Kind `json:"kind"`
	// StatusCode is the HTTP status code, when the error came from an
	// HTTP response.
	StatusCode int `json:"status_code,omitempty"`
	// Code is the exchange-specific numeric error code, when present.
	Code int `json:"code,omitempty"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Timeout marks transport errors caused by an exceeded deadline.
	// A timed-out order submission has an UNKNOWN outcome: the order may
	// or may not exist on the exchange.
	Timeout bool `json:"timeout,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s (%d/%d): %s", e.Kind, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewExchangeError creates a KindExchange error carrying the HTTP status
// and the exchange's numeric code and message.
func NewExchangeError(statusCode, code int, message string) *Error {
	return &Error{
		Kind:       KindExchange,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// WrapTransport wraps a network-level failure. The timeout flag should be
// set when the failure was a deadline or I/O timeout.
func WrapTransport(err error, timeout bool) *Error {
	msg := "transport failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindTransport, Message: msg, Timeout: timeout, cause: err}
}

// WrapProtocol wraps a schema-decode failure on a success response.
func WrapProtocol(err error) *Error {
	return &Error{Kind: KindProtocol, Message: "unparseable response", cause: err}
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether the error is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := AsError(err); ok {
		return e.Kind == kind
	}
	return false
}

// IsTimeout reports whether the error is a transport failure caused by an
// exceeded deadline. After a timed-out submission the caller must not
// assume the order failed; blind retry can duplicate it.
func IsTimeout(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Kind == KindTransport && e.Timeout
	}
	return false
}

// Binance futures error codes this client classifies. Only codes that
// change caller behavior are named here.
const (
	codeTooManyRequests     = -1003
	codeRateLimitViolation  = -1015
	codeInvalidTimestamp    = -1021
	codeInvalidSignature    = -1022
	codeInvalidAPIKey       = -2014
	codeRejectedMbxKey      = -2015
	codeInsufficientBalance = -2010
	codeMaxOpenOrders       = -2018
	codeInsufficientMargin  = -2019
)

// IsRateLimited reports whether the exchange rejected the request for
// exceeding a rate limit. HTTP 429 and 418 count even when the body
// carried no recognized code.
func IsRateLimited(err error) bool {
	e, ok := AsError(err)
	if !ok || e.Kind != KindExchange {
		return false
	}
	if e.StatusCode == 429 || e.StatusCode == 418 {
		return true
	}
	return e.Code == codeTooManyRequests || e.Code == codeRateLimitViolation
}

// IsInsufficientBalance reports whether the exchange refused the order for
// lack of funds or margin.
func IsInsufficientBalance(err error) bool {
	e, ok := AsError(err)
	if !ok || e.Kind != KindExchange {
		return false
	}
	return e.Code == codeInsufficientBalance ||
		e.Code == codeInsufficientMargin ||
		e.Code == codeMaxOpenOrders
}

// IsAuthFailure reports whether the exchange rejected the request's
// credentials, signature, or timestamp.
func IsAuthFailure(err error) bool {
	e, ok := AsError(err)
	if !ok || e.Kind != KindExchange {
		return false
	}
	switch e.Code {
	case codeInvalidTimestamp, codeInvalidSignature, codeInvalidAPIKey, codeRejectedMbxKey:
		return true
	}
	return e.StatusCode == 401
}
