package goGateway

import (
	"io"

	internalaudit "github.com/MrEthical07/goGateway/internal/audit"
)

// AuditEvent is one credential lifecycle record. Events never carry token values.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the client's dispatcher goroutine.
type AuditSink = internalaudit.Sink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = internalaudit.SinkFunc

// MultiAuditSink fans events out to several sinks.
type MultiAuditSink = internalaudit.MultiSink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events on a channel; see [NewChannelSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line; see [NewJSONWriterSink].
type JSONWriterSink = internalaudit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
