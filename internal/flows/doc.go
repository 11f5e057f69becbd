// Package flows contains pure-function orchestrators for the credential
// operations of a gateway client.
//
// Each flow function (RunRenewal, RunLogin) accepts a typed dependency struct
// and returns a result carrying either the new credential pair or a failure
// kind the root package maps onto its error taxonomy.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the transport and the credential store.
// They do NOT own either resource, and they do NOT coordinate concurrency:
// single-flight renewal belongs to internal/renewal, which invokes RunRenewal
// at most once per attempt.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGateway (to avoid import cycles).
//   - Log token values.
package flows
