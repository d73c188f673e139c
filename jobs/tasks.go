package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit log entry.
	TaskAuditRecord = "audit:record"
)

// NewAuditRecordTask constructs an Asynq task carrying the entry.
func NewAuditRecordTask(entry shared.AuditLog) (*asynq.Task, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// AuditRecordJob writes queued audit entries through a synchronous recorder.
type AuditRecordJob struct {
	Store  shared.AuditRecorder
	Logger *slog.Logger
}

// Handle processes TaskAuditRecord tasks. Malformed payloads are not retried.
func (j *AuditRecordJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("audit record: handler not configured")
	}
	var entry shared.AuditLog
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return fmt.Errorf("audit record: decode: %v: %w", err, asynq.SkipRetry)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("audit record: %v: %w", err, asynq.SkipRetry)
	}

	if err := j.Store.Record(ctx, entry); err != nil {
		j.logger().Error("audit record", slog.String("action", entry.Action), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *AuditRecordJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
