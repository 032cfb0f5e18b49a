package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"CoinCompare/internal/model"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrMalformedResponse indicates a body that does not have the expected structure.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNegativePrice indicates a price below zero in an upstream response.
	ErrNegativePrice = errors.New("negative price")
)

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind string

const (
	KindNetwork FetchErrorKind = "network"
	KindTimeout FetchErrorKind = "timeout"
	KindDecode  FetchErrorKind = "decode"
)

// FetchError is returned by adapters when no series could be produced at all.
type FetchError struct {
	Source model.Source
	Kind   FetchErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func transportError(src model.Source, err error) *FetchError {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &FetchError{Source: src, Kind: kind, Err: err}
}

func decodeError(src model.Source, err error) *FetchError {
	return &FetchError{Source: src, Kind: KindDecode, Err: err}
}

// newHTTPClient builds a client with the given timeout and optional proxy.
func newHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
