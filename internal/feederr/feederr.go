package feederr

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"net"
	"net/http"
)

// Kind classifies a pipeline failure. The kind decides whether a retry
// can help: transport, timeout and rate-limit failures are transient,
// everything else is not.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindRateLimited
	KindNotFound
	KindClient
	KindDecoding
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindClient:
		return "client"
	case KindDecoding:
		return "decoding"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Error is a classified pipeline error
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a wrapped cause
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates a classified error around a cause
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// FromStatus maps an HTTP status code to an error kind
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 400 && status < 500:
		return KindClient
	default:
		return KindTransport
	}
}

// Classify turns an arbitrary error into a classified one. Already
// classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.Canceled) {
		return Wrap(KindCancelled, "operation cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(KindTimeout, "network timeout", err)
		}
		return Wrap(KindTransport, "network error", err)
	}

	// Malformed payloads are permanent; a retry refetches the same
	// broken bytes
	var jsonSyntax *json.SyntaxError
	var jsonType *json.UnmarshalTypeError
	var xmlSyntax *xml.SyntaxError
	if errors.As(err, &jsonSyntax) || errors.As(err, &jsonType) || errors.As(err, &xmlSyntax) || errors.Is(err, image.ErrFormat) {
		return Wrap(KindDecoding, "malformed payload", err)
	}

	return Wrap(KindTransport, "request failed", err)
}

// KindOf returns the kind of a classified error, or KindTransport for
// anything unclassified
func KindOf(err error) Kind {
	return Classify(err).Kind
}

// Retryable reports whether retrying the same operation can succeed
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindTimeout, KindRateLimited:
		return true
	default:
		return false
	}
}
