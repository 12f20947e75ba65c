package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// ErrorKind classifies why an upstream call failed.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"      // credential missing or rejected
	KindQuota     ErrorKind = "quota"     // rate limit or billing quota
	KindMalformed ErrorKind = "malformed" // response without usable text
	KindNetwork   ErrorKind = "network"   // transport failure or timeout
	KindUpstream  ErrorKind = "upstream"  // any other upstream HTTP error
	KindUnknown   ErrorKind = "unknown"
)

// ErrMissingAPIKey is returned before any request is sent when a provider
// that needs a credential has none.
var ErrMissingAPIKey = errors.New("missing API key")

// UpstreamError is a classified failure of a provider call.
type UpstreamError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int // upstream HTTP status, 0 if no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewMalformedError reports a response that decoded but carried no answer.
func NewMalformedError(provider, reason string) *UpstreamError {
	return &UpstreamError{Kind: KindMalformed, Provider: provider, Err: errors.New(reason)}
}

// KindForStatus maps an upstream HTTP status to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindQuota
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindNetwork
	default:
		return KindUpstream
	}
}

// Classify wraps err in an UpstreamError. Errors that are already classified
// are returned unchanged.
func Classify(provider string, err error) *UpstreamError {
	if err == nil {
		return nil
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}

	kind := KindUnknown
	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = KindNetwork
	case errors.As(err, &netErr):
		kind = KindNetwork
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		kind = KindMalformed
	}

	return &UpstreamError{Kind: kind, Provider: provider, Err: err}
}
