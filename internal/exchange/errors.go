package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies an exchange failure for retry and escalation policy.
type ErrorKind int

const (
	// KindPermanent covers request errors retrying cannot fix.
	KindPermanent ErrorKind = iota
	// KindTransient covers timeouts, 5xx responses and rate limiting.
	KindTransient
	// KindAuth covers invalid or rejected credentials.
	KindAuth
	// KindInsufficientFunds covers balance-too-low order rejections.
	KindInsufficientFunds
	// KindClockSkew covers signed requests rejected for a stale timestamp.
	KindClockSkew
)

// APIError is a normalized exchange API failure.
type APIError struct {
	Exchange   string
	StatusCode int
	Code       string
	Message    string
	Kind       ErrorKind
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error %s (HTTP %d): %s", e.Exchange, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Exchange, e.StatusCode, e.Message)
}

// NewAPIError builds a classified APIError.
func NewAPIError(exchange string, status int, code, message string, kind ErrorKind) *APIError {
	return &APIError{Exchange: exchange, StatusCode: status, Code: code, Message: message, Kind: kind}
}

// ClassifyHTTPStatus maps a bare HTTP status to an error kind.
func ClassifyHTTPStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindTransient
	case status >= 500:
		return KindTransient
	default:
		return KindPermanent
	}
}

// IsTransient reports whether the error is worth retrying: network timeouts,
// rate limits and server-side failures. Context cancellation is not
// transient; the caller asked to stop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// IsAuthError reports whether the error stems from bad credentials. Auth
// errors are fatal at startup and never retried.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsInsufficientFunds reports whether an order was rejected for lack of
// balance.
func IsInsufficientFunds(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindInsufficientFunds
}

// IsClockSkew reports whether a signed request was rejected because the
// local clock drifted from the exchange's.
func IsClockSkew(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindClockSkew
}
