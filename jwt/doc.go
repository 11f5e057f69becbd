// Package jwt inspects access tokens issued by the backend.
//
// The gateway client never verifies signatures (it holds no keys); it only reads the
// registered claims so it can renew a credential shortly before the server would reject
// it. Opaque tokens that are not JWTs are reported as such and never treated as expired.
//
// # What this package must NOT do
//
//   - Make trust decisions from unverified claims beyond scheduling a renewal.
//   - Import goGateway or credential.
package jwt
