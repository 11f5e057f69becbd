package goGateway

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGateway/credential"
)

const (
	auditEventLogin            = "login"
	auditEventLoginFailure     = "login_failure"
	auditEventLogout           = "logout"
	auditEventCredentialsSet   = "credentials_set"
	auditEventRenewalStarted   = "renewal_started"
	auditEventRenewalSucceeded = "renewal_succeeded"
	auditEventRenewalFailed    = "renewal_failed"
	auditEventSessionExpired   = "session_expired"
)

// AuditErrorCode is the stable error vocabulary recorded on audit events.
type AuditErrorCode string

const (
	auditErrUnauthenticated AuditErrorCode = "unauthenticated"
	auditErrSessionExpired  AuditErrorCode = "session_expired"
	auditErrRenewalRejected AuditErrorCode = "renewal_rejected"
	auditErrNetwork         AuditErrorCode = "network"
	auditErrServer          AuditErrorCode = "server"
	auditErrStorage         AuditErrorCode = "storage"
	auditErrIncompletePair  AuditErrorCode = "incomplete_pair"
	auditErrCanceled        AuditErrorCode = "canceled"
	auditErrInternal        AuditErrorCode = "internal_error"
)

type auditFields struct {
	requestID  string
	method     string
	path       string
	attempt    int
	generation uint64
	waiters    int
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	fields auditFields,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}
	if fields.requestID == "" {
		fields.requestID = requestIDFromContext(ctx)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		RequestID:  fields.requestID,
		Method:     fields.method,
		Path:       fields.path,
		Attempt:    fields.attempt,
		Generation: fields.generation,
		Waiters:    fields.waiters,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRenewalRejected):
		return auditErrRenewalRejected
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, credential.ErrIncompletePair):
		return auditErrIncompletePair
	case errors.Is(err, ErrStorage):
		return auditErrStorage
	case errors.Is(err, ErrNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrServer):
		return auditErrServer
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
