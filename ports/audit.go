package ports

import (
	"context"
	"time"
)

// AuditEntry is one committed operation, flattened for durable storage.
type AuditEntry struct {
	SessionID    string
	OperationID  string
	Category     string
	Method       string
	Column       string
	Params       map[string]interface{}
	RowsAffected int
	AppliedAt    time.Time
}

// AuditSink receives committed cleaning operations. Sinks are best effort:
// a failed write is logged, never surfaced to the caller, and never rolls
// back the session state it describes.
type AuditSink interface {
	RecordOperation(ctx context.Context, entry AuditEntry) error
}

// NopAuditSink discards everything. Used when no database is configured.
type NopAuditSink struct{}

func (NopAuditSink) RecordOperation(context.Context, AuditEntry) error { return nil }
