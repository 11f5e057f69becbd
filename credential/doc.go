// Package credential provides the process-wide credential store and its durable
// backends.
//
// # Credential pair
//
// A [Pair] holds an access token and a refresh token. Both are present (the client is
// authenticated) or both are absent (anonymous); [Store.Set] refuses half pairs.
//
// # Storage
//
// [Store] caches the current pair in memory and persists it through a [Backend]. Three
// backends ship with the package: [MemoryBackend], [FileBackend] (one file per key,
// written via rename) and [RedisBackend]. Pairs are persisted as a compact versioned
// binary blob (see [Encode]).
//
// # Architecture boundaries
//
// This package owns persistence and the pair model. It does NOT issue network calls,
// detect expiry, or coordinate renewal; those belong to the gateway [Client].
//
// # What this package must NOT do
//
//   - Import goGateway, transport, or jwt (no upward imports).
//   - Swallow storage failures: every backend error surfaces as [ErrStorage].
//   - Log or otherwise expose token values.
package credential
