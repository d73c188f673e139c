package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Validate checks the mandatory fields.
func (l AuditLog) Validate() error {
	if l.Action == "" || l.Entity == "" || l.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	return nil
}

// AuditRecorder accepts audit records. Handlers depend on this so the write
// can be synchronous (AuditLogger) or queued (jobs.Client).
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

// NopAudit discards records.
type NopAudit struct{}

// Record implements AuditRecorder.
func (NopAudit) Record(context.Context, AuditLog) error { return nil }

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	var actor *int64
	if log.ActorID > 0 {
		actor = &log.ActorID
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, actor, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
