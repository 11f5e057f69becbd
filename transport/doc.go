// Package transport is the raw request primitive used by the gateway client.
//
// # Overview
//
// A [Transport] sends one [Request] and returns the [Response] or a transport-level
// error. It knows nothing about credentials or renewal; the gateway client injects the
// Authorization header and inspects the status and body on the way back.
//
// # HTTP transport
//
// [HTTP] resolves request paths against a base URL and:
//
//   - sets Accept: application/json and a User-Agent on every request
//   - sets Content-Type: application/json when a body is present and none was given
//   - stamps an X-Request-ID correlation header (a UUID) when the caller did not
//   - paces sends through an optional token bucket (golang.org/x/time/rate)
//   - caps concurrent sends with an optional channel semaphore
//   - bounds each call by the configured timeout
//
// Any status code is a successful round-trip from the transport's point of view. Only
// failures to obtain a response (dial, timeout, cancelled context, body read) are
// returned as errors.
//
// # Thread Safety
//
// [HTTP] is safe for concurrent use.
package transport
