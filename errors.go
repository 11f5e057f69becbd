package goGateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGateway/credential"
)

var (
	// ErrUnauthenticated is returned when an authenticated request is made with no stored credential.
	// No network call is made.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNetwork wraps transport failures (DNS, connect, timeout, oversized body).
	ErrNetwork = errors.New("network failure")
	// ErrServer is the sentinel every [*ServerError] unwraps to.
	ErrServer = errors.New("server error")
	// ErrSessionExpired is returned to every waiter when credential renewal fails.
	// The credential store has been cleared by the time a caller observes it.
	// A renewal that failed on the wire also carries ErrNetwork, so test for
	// ErrSessionExpired before ErrNetwork.
	ErrSessionExpired = errors.New("session expired")
	// ErrStorage is the credential store failure sentinel.
	ErrStorage = credential.ErrStorage
	// ErrRenewalRejected accompanies ErrSessionExpired when the renewal endpoint refused
	// the refresh token or answered with an unusable body.
	ErrRenewalRejected = errors.New("credential renewal rejected")
	// ErrClientClosed is returned by operations on a closed [Client].
	ErrClientClosed = errors.New("client closed")
	// ErrInvalidRequest is returned for request descriptors that cannot be sent.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// ServerError is a non-2xx response returned unchanged to the caller.
type ServerError struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *ServerError) Error() string {
	if e == nil {
		return ErrServer.Error()
	}
	text := http.StatusText(e.Status)
	if text == "" {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return fmt.Sprintf("server error: %d %s", e.Status, text)
}

func (e *ServerError) Unwrap() error {
	return ErrServer
}

// RenewalError is the renewal endpoint's non-2xx response. It unwraps to
// [ErrRenewalRejected] and is always joined with [ErrSessionExpired]; it is not a
// [*ServerError].
type RenewalError struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *RenewalError) Error() string {
	if e == nil {
		return ErrRenewalRejected.Error()
	}
	return fmt.Sprintf("%s: status %d", ErrRenewalRejected, e.Status)
}

func (e *RenewalError) Unwrap() error {
	return ErrRenewalRejected
}

func networkError(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
