package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGateway/credential"
	"github.com/MrEthical07/goGateway/transport"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureTransport
	LoginFailureRejected
	LoginFailureDecode
	LoginFailureIncomplete
	LoginFailurePersist
)

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Response *transport.Response
	Pair     credential.Pair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Path   string
	Fields TokenFields

	Send func(context.Context, *transport.Request) (*transport.Response, error)
	Save func(context.Context, credential.Pair) error
}

// RunLogin posts body to the login endpoint without authentication and stores
// the returned pair.
func RunLogin(ctx context.Context, body []byte, deps LoginDeps) LoginResult {
	resp, err := deps.Send(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   deps.Path,
		Body:   body,
	})
	if err != nil {
		return LoginResult{Failure: LoginFailureTransport, Err: err}
	}
	if !resp.OK() {
		return LoginResult{
			Failure:  LoginFailureRejected,
			Err:      fmt.Errorf("flows: login endpoint returned status %d", resp.Status),
			Response: resp,
		}
	}

	pair, err := DecodePair(resp.Body, deps.Fields, "")
	if err != nil {
		kind := LoginFailureDecode
		if errors.Is(err, ErrMissingAccessToken) || errors.Is(err, ErrMissingRefreshToken) {
			kind = LoginFailureIncomplete
		}
		return LoginResult{Failure: kind, Err: err, Response: resp}
	}

	if err := deps.Save(ctx, pair); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, Response: resp}
	}
	return LoginResult{Failure: LoginFailureNone, Response: resp, Pair: pair}
}
