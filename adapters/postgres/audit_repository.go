// Package postgres persists the operation audit trail. The database is
// optional: when DATABASE_URL is unset the server runs with a no-op sink
// and sessions stay purely in memory.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"goclean/ports"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS operation_audit (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL,
	operation_id  TEXT NOT NULL,
	category      TEXT NOT NULL,
	method        TEXT NOT NULL,
	column_name   TEXT,
	params        JSONB,
	rows_affected INTEGER NOT NULL DEFAULT 0,
	applied_at    TIMESTAMPTZ NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_operation_audit_session ON operation_audit (session_id, applied_at);`

// AuditRepository writes committed operations to Postgres.
type AuditRepository struct {
	db *sqlx.DB
}

// Connect opens the database and ensures the audit table exists.
func Connect(databaseURL string) (*AuditRepository, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}
	return &AuditRepository{db: db}, nil
}

// NewAuditRepository wraps an existing connection, mainly for tests.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordOperation appends one committed operation to the audit trail.
func (r *AuditRepository) RecordOperation(ctx context.Context, entry ports.AuditEntry) error {
	params, err := json.Marshal(entry.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal operation params: %w", err)
	}
	query := `
		INSERT INTO operation_audit
			(session_id, operation_id, category, method, column_name, params, rows_affected, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		entry.SessionID,
		entry.OperationID,
		entry.Category,
		entry.Method,
		entry.Column,
		params,
		entry.RowsAffected,
		entry.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// SessionTrail returns the audit rows of one session, oldest first.
func (r *AuditRepository) SessionTrail(ctx context.Context, sessionID string) ([]ports.AuditEntry, error) {
	query := `
		SELECT session_id, operation_id, category, method, column_name, params, rows_affected, applied_at
		FROM operation_audit
		WHERE session_id = $1
		ORDER BY applied_at ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var out []ports.AuditEntry
	for rows.Next() {
		var entry ports.AuditEntry
		var params []byte
		if err := rows.Scan(
			&entry.SessionID,
			&entry.OperationID,
			&entry.Category,
			&entry.Method,
			&entry.Column,
			&params,
			&entry.RowsAffected,
			&entry.AppliedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &entry.Params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal operation params: %w", err)
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (r *AuditRepository) Close() error {
	return r.db.Close()
}
