package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGateway/credential"
	"github.com/MrEthical07/goGateway/transport"
)

// RenewalFailureKind classifies renewal flow failures for root-level mapping.
type RenewalFailureKind int

const (
	RenewalFailureNone RenewalFailureKind = iota
	RenewalFailureLoad
	RenewalFailureNoCredential
	RenewalFailureEncode
	RenewalFailureTransport
	RenewalFailureRejected
	RenewalFailureDecode
	RenewalFailureIncomplete
	RenewalFailurePersist
)

func (k RenewalFailureKind) String() string {
	switch k {
	case RenewalFailureNone:
		return "none"
	case RenewalFailureLoad:
		return "load"
	case RenewalFailureNoCredential:
		return "no_credential"
	case RenewalFailureEncode:
		return "encode"
	case RenewalFailureTransport:
		return "transport"
	case RenewalFailureRejected:
		return "rejected"
	case RenewalFailureDecode:
		return "decode"
	case RenewalFailureIncomplete:
		return "incomplete"
	case RenewalFailurePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// RenewalResult carries either the renewed pair or failure metadata.
type RenewalResult struct {
	Failure RenewalFailureKind
	Err     error
	// Response is the renewal endpoint response, when one was received.
	Response *transport.Response
	Pair     credential.Pair
	// ClearErr is set when clearing the store after a failure also failed.
	ClearErr error
}

// RenewalDeps captures renewal flow dependencies.
type RenewalDeps struct {
	Path   string
	Fields TokenFields

	Load  func(context.Context) (*credential.Pair, error)
	Send  func(context.Context, *transport.Request) (*transport.Response, error)
	Save  func(context.Context, credential.Pair) error
	Clear func(context.Context) error
	Warn  func(string, ...any)
}

// RunRenewal exchanges the stored refresh token for a new pair and persists it.
// Every failure after the stored pair was read clears the store.
func RunRenewal(ctx context.Context, deps RenewalDeps) RenewalResult {
	current, err := deps.Load(ctx)
	if err != nil {
		return RenewalResult{Failure: RenewalFailureLoad, Err: err}
	}
	if current == nil || current.RefreshToken == "" {
		return RenewalResult{Failure: RenewalFailureNoCredential, Err: ErrNoCredential}
	}

	result := renew(ctx, deps, *current)
	if result.Failure != RenewalFailureNone {
		result.ClearErr = clearAfterFailure(ctx, deps)
	}
	return result
}

func renew(ctx context.Context, deps RenewalDeps, current credential.Pair) RenewalResult {
	body, err := EncodeRefreshRequest(deps.Fields, current.RefreshToken)
	if err != nil {
		return RenewalResult{Failure: RenewalFailureEncode, Err: err}
	}

	resp, err := deps.Send(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   deps.Path,
		Body:   body,
	})
	if err != nil {
		return RenewalResult{Failure: RenewalFailureTransport, Err: err}
	}
	if !resp.OK() {
		return RenewalResult{
			Failure:  RenewalFailureRejected,
			Err:      fmt.Errorf("flows: renewal endpoint returned status %d", resp.Status),
			Response: resp,
		}
	}

	pair, err := DecodePair(resp.Body, deps.Fields, current.RefreshToken)
	if err != nil {
		kind := RenewalFailureDecode
		if errors.Is(err, ErrMissingAccessToken) || errors.Is(err, ErrMissingRefreshToken) {
			kind = RenewalFailureIncomplete
		}
		return RenewalResult{Failure: kind, Err: err, Response: resp}
	}

	if err := deps.Save(ctx, pair); err != nil {
		return RenewalResult{Failure: RenewalFailurePersist, Err: err, Response: resp}
	}

	return RenewalResult{Failure: RenewalFailureNone, Response: resp, Pair: pair}
}

func clearAfterFailure(ctx context.Context, deps RenewalDeps) error {
	if deps.Clear == nil {
		return nil
	}
	err := deps.Clear(context.WithoutCancel(ctx))
	if err != nil && deps.Warn != nil {
		deps.Warn("goGateway: clearing credentials after failed renewal", "error", err)
	}
	return err
}
