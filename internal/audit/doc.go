// Package audit implements async event dispatching for credential lifecycle
// operations of a gateway client.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, request correlation and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the client and its flows.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goGateway or any sibling internal package.
//   - Record credential values.
package audit
