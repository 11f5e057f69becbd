// Package goGateway is the authenticated request-dispatch layer of an API client.
//
// A [Client] attaches a bearer access token to every request that requires
// authentication, recognizes credential expiry from the shape of a failure
// response, renews the credential at most once at a time no matter how many
// requests fail together, and replays each failed request exactly once with
// the renewed token. When renewal fails, every waiting request receives
// [ErrSessionExpired] and the stored credential is cleared.
//
// # Architecture boundaries
//
// goGateway is the public surface. It exposes [Client], [Builder], [Config],
// [Request] and the error sentinels. Credential persistence lives in the
// credential package, the wire primitive in transport, and the single-flight
// renewal state machine, flows and audit dispatch under internal/.
//
// # What this package must NOT do
//
//   - Retry non-expiry failures or back off; those return to the caller unchanged.
//   - Log or audit token values.
//   - Keep renewal state in package globals; each Client owns its own.
package goGateway
