package goGateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGateway/credential"
	internalaudit "github.com/MrEthical07/goGateway/internal/audit"
	"github.com/MrEthical07/goGateway/internal/expiry"
	internalflows "github.com/MrEthical07/goGateway/internal/flows"
	"github.com/MrEthical07/goGateway/internal/renewal"
	"github.com/MrEthical07/goGateway/jwt"
	"github.com/MrEthical07/goGateway/transport"
)

// Client dispatches requests on behalf of one logged-in identity. It owns the
// renewal state for its credential store, so two Clients sharing a store
// coordinate independently.
//
// Client is safe for concurrent use after [Builder.Build].
type Client struct {
	config    Config
	transport transport.Transport
	store     *credential.Store
	inspector *jwt.Inspector
	expiry    expiry.Predicate
	renewals  *renewal.Coordinator
	flows     internalflows.Deps
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	logger    *slog.Logger
	closed    atomic.Bool
}

// Close stops accepting requests, waits for an in-flight renewal to settle and
// drains the audit buffer. Close is idempotent.
func (c *Client) Close() {
	if c == nil || c.closed.Swap(true) {
		return
	}
	c.renewals.Close()
	if c.audit != nil {
		c.audit.Close()
	}
}

func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// Renewing reports whether a credential renewal is in flight.
func (c *Client) Renewing() bool {
	return c != nil && c.renewals.State() == renewal.Refreshing
}

// RenewalWaiters returns the number of callers parked on the in-flight renewal.
func (c *Client) RenewalWaiters() int {
	if c == nil {
		return 0
	}
	return c.renewals.Pending()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) metricObserve(id MetricID, d time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Observe(id, d)
}

/*
====================================
EXECUTE
====================================
*/

// Execute sends req and returns the 2xx response.
//
// For requests with RequiresAuth, the stored access token is attached. If the
// response has the configured expiry shape, Execute joins the client's single
// renewal attempt and replays req exactly once with the renewed token. When the
// renewal fails every waiting caller receives an error matching
// [ErrSessionExpired] and the store is cleared.
//
// Other failures are returned unchanged: [*ServerError] for non-2xx responses
// and errors matching [ErrNetwork] for transport failures.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	c.metricInc(MetricRequest)
	start := time.Now()

	var (
		resp *Response
		err  error
	)
	if req.RequiresAuth {
		resp, err = c.dispatchAuthenticated(ctx, req, requestID)
	} else {
		resp, err = c.send(ctx, req, requestID, "")
	}

	c.metricObserve(MetricRequestLatency, time.Since(start))
	if err != nil {
		var serverErr *ServerError
		switch {
		case errors.Is(err, ErrSessionExpired):
		case errors.As(err, &serverErr):
			c.metricInc(MetricServerError)
		case errors.Is(err, ErrNetwork):
			c.metricInc(MetricNetworkError)
		}
		return nil, err
	}
	c.metricInc(MetricRequestSuccess)
	return resp, nil
}

func (c *Client) dispatchAuthenticated(ctx context.Context, req Request, requestID string) (*Response, error) {
	gen := c.renewals.Generation()
	pair, err := c.loadCredential(ctx)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		c.metricInc(MetricUnauthenticated)
		return nil, ErrUnauthenticated
	}

	current := *pair
	if c.expiresSoon(current.AccessToken) {
		c.metricInc(MetricProactiveRenewal)
		current, gen, err = c.awaitRenewal(ctx, gen)
		if err != nil {
			return nil, err
		}
	}

	return c.attempt(ctx, req, requestID, 0, current, gen)
}

// attempt sends req with cred. n is 0 for the original send and 1 for the
// replay; only attempt 0 may enter renewal.
func (c *Client) attempt(ctx context.Context, req Request, requestID string, n int, cred credential.Pair, gen uint64) (*Response, error) {
	resp, err := c.send(ctx, req, requestID, cred.AccessToken)
	if err == nil {
		return resp, nil
	}

	var serverErr *ServerError
	if n > 0 || !errors.As(err, &serverErr) || !c.expiry.Match(serverErr.Status, serverErr.Body) {
		return nil, err
	}

	c.metricInc(MetricExpiryDetected)
	next, nextGen, err := c.awaitRenewal(ctx, gen)
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricReplay)
	return c.attempt(ctx, req, requestID, n+1, next, nextGen)
}

// send performs one round-trip and maps the outcome onto the error taxonomy.
// The transport's in-flight slot is held only for the duration of this call.
func (c *Client) send(ctx context.Context, req Request, requestID, access string) (*Response, error) {
	resp, err := c.transport.Send(ctx, req.wire(access, requestID))
	if err != nil {
		return nil, networkError(err)
	}
	if !resp.OK() {
		return nil, serverError(resp)
	}
	return resp, nil
}

func serverError(resp *transport.Response) *ServerError {
	if resp == nil {
		return &ServerError{}
	}
	return &ServerError{
		Status: resp.Status,
		Header: resp.Header,
		Body:   resp.Body,
	}
}

func renewalRejection(resp *transport.Response) *RenewalError {
	if resp == nil {
		return &RenewalError{}
	}
	return &RenewalError{
		Status: resp.Status,
		Header: resp.Header,
		Body:   resp.Body,
	}
}

func (c *Client) expiresSoon(access string) bool {
	window := c.config.Renewal.ProactiveWindow
	return window > 0 && c.inspector.ExpiresWithin(access, window)
}

/*
====================================
RENEWAL COORDINATION
====================================
*/

// awaitRenewal reports that the credential read at generation gen is no longer
// accepted and returns a newer one.
func (c *Client) awaitRenewal(ctx context.Context, gen uint64) (credential.Pair, uint64, error) {
	out, err := c.renewals.Await(ctx, gen)
	if errors.Is(err, renewal.ErrClosed) {
		return credential.Pair{}, 0, ErrClientClosed
	}
	if err != nil {
		return credential.Pair{}, 0, err
	}

	if out.Superseded {
		c.metricInc(MetricRenewalSuperseded)
		pair, err := c.loadCredential(ctx)
		if err != nil {
			return credential.Pair{}, 0, err
		}
		if pair == nil {
			c.metricInc(MetricSessionExpired)
			return credential.Pair{}, 0, ErrSessionExpired
		}
		return *pair, out.Generation, nil
	}

	if !out.Initiated {
		c.metricInc(MetricRenewalWaiter)
	}
	if out.Err != nil {
		if errors.Is(out.Err, ErrSessionExpired) {
			c.metricInc(MetricSessionExpired)
		}
		return credential.Pair{}, 0, out.Err
	}
	return out.Pair, out.Generation, nil
}

// renew is the coordinator's renewal function. It runs at most once at a time,
// detached from any caller's cancellation.
func (c *Client) renew(ctx context.Context) (credential.Pair, error) {
	requestID := requestIDFromContext(ctx)
	c.metricInc(MetricRenewalStarted)
	c.logger.Info("credential renewal started", "request_id", requestID)
	c.emitAudit(ctx, auditEventRenewalStarted, true, auditFields{}, nil, nil)

	start := time.Now()
	res := internalflows.RunRenewal(ctx, c.flows.Renewal)
	elapsed := time.Since(start)
	c.metricObserve(MetricRenewalLatency, elapsed)

	if res.ClearErr != nil {
		c.metricInc(MetricStorageError)
		c.logger.Error("clearing credentials after failed renewal", "error", res.ClearErr)
	}

	if res.Failure == internalflows.RenewalFailureNone {
		c.metricInc(MetricRenewalSucceeded)
		c.logger.Info("credential renewal succeeded", "request_id", requestID, "duration", elapsed)
		c.emitAudit(ctx, auditEventRenewalSucceeded, true, auditFields{waiters: c.renewals.Pending()}, nil, nil)
		return res.Pair, nil
	}

	err := c.renewalError(res)
	c.metricInc(MetricRenewalFailed)
	c.logger.Warn("credential renewal failed",
		"request_id", requestID,
		"reason", res.Failure.String(),
		"duration", elapsed,
		"error", err,
	)
	reason := func() map[string]string {
		return map[string]string{"reason": res.Failure.String()}
	}
	c.emitAudit(ctx, auditEventRenewalFailed, false, auditFields{}, err, reason)
	if errors.Is(err, ErrSessionExpired) {
		c.emitAudit(ctx, auditEventSessionExpired, false, auditFields{waiters: c.renewals.Pending()}, err, reason)
	}
	return credential.Pair{}, err
}

func (c *Client) renewalError(res internalflows.RenewalResult) error {
	switch res.Failure {
	case internalflows.RenewalFailureLoad:
		c.metricInc(MetricStorageError)
		return res.Err
	case internalflows.RenewalFailureNoCredential:
		return ErrSessionExpired
	case internalflows.RenewalFailureTransport:
		return errors.Join(ErrSessionExpired, networkError(res.Err))
	case internalflows.RenewalFailureRejected:
		return errors.Join(ErrSessionExpired, renewalRejection(res.Response))
	case internalflows.RenewalFailureDecode, internalflows.RenewalFailureIncomplete:
		return errors.Join(ErrSessionExpired, ErrRenewalRejected, res.Err)
	case internalflows.RenewalFailurePersist:
		if !errors.Is(res.Err, ErrStorage) {
			// The store refused the pair itself and has been cleared.
			return errors.Join(ErrSessionExpired, ErrRenewalRejected, res.Err)
		}
		c.metricInc(MetricStorageError)
		c.logger.Error("storing renewed credentials failed", "error", res.Err)
		return res.Err
	default:
		return errors.Join(ErrSessionExpired, res.Err)
	}
}

/*
====================================
CREDENTIAL LIFECYCLE
====================================
*/

// Login posts body to the login endpoint without authentication and stores
// the returned pair. body may be a []byte holding JSON or any value that
// encodes to JSON.
func (c *Client) Login(ctx context.Context, body any) (credential.Pair, error) {
	if c == nil || c.closed.Load() {
		return credential.Pair{}, ErrClientClosed
	}

	payload, err := encodeBody(body)
	if err != nil {
		return credential.Pair{}, err
	}

	res := internalflows.RunLogin(ctx, payload, c.flows.Login)
	if res.Failure != internalflows.LoginFailureNone {
		err := c.loginError(res)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, auditFields{path: c.config.Login.Path}, err, nil)
		return credential.Pair{}, err
	}

	gen := c.renewals.Advance()
	c.metricInc(MetricLogin)
	c.logger.Info("logged in")
	c.emitAudit(ctx, auditEventLogin, true, auditFields{path: c.config.Login.Path, generation: gen}, nil, nil)
	return res.Pair, nil
}

func (c *Client) loginError(res internalflows.LoginResult) error {
	switch res.Failure {
	case internalflows.LoginFailureTransport:
		c.metricInc(MetricNetworkError)
		return networkError(res.Err)
	case internalflows.LoginFailureRejected:
		c.metricInc(MetricServerError)
		return serverError(res.Response)
	case internalflows.LoginFailurePersist:
		c.metricInc(MetricStorageError)
		c.logger.Error("storing login credentials failed", "error", res.Err)
		return res.Err
	default:
		return fmt.Errorf("%w: login response: %w", ErrServer, res.Err)
	}
}

// SetCredentials stores pair as the current credential, e.g. one restored from
// elsewhere. Both tokens are required.
func (c *Client) SetCredentials(ctx context.Context, pair credential.Pair) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.store.Set(ctx, pair); err != nil {
		if errors.Is(err, ErrStorage) {
			c.metricInc(MetricStorageError)
		}
		return err
	}
	gen := c.renewals.Advance()
	c.emitAudit(ctx, auditEventCredentialsSet, true, auditFields{generation: gen}, nil, nil)
	return nil
}

// Credentials returns the stored pair, or nil when anonymous.
func (c *Client) Credentials(ctx context.Context) (*credential.Pair, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.loadCredential(ctx)
}

// Logout clears the stored credential. It does not contact the backend.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.store.Clear(ctx); err != nil {
		c.metricInc(MetricStorageError)
		c.logger.Error("clearing credentials failed", "error", err)
		c.emitAudit(ctx, auditEventLogout, false, auditFields{}, err, nil)
		return err
	}
	gen := c.renewals.Advance()
	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, auditFields{generation: gen}, nil, nil)
	return nil
}

func (c *Client) loadCredential(ctx context.Context) (*credential.Pair, error) {
	pair, err := c.store.Get(ctx)
	if err != nil {
		c.metricInc(MetricStorageError)
		c.logger.Error("reading credentials failed", "error", err)
		return nil, err
	}
	return pair, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %w", ErrInvalidRequest, err)
		}
		return payload, nil
	}
}
