// Package sink holds audit.Sink implementations.
package sink

import (
	"context"
	"log/slog"

	audit "crpstore/pkg/platform/audit"
)

// LogSink writes events to a structured logger with log_type=audit.
type LogSink struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"log_type", "audit",
		"action", event.Action,
		"category", string(audit.AuditEvent(event.Action).Category()),
		"subject", event.Subject,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"challenges", event.Challenges,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}
