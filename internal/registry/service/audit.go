package service

import (
	"context"
	"log/slog"

	"certledger/pkg/requestcontext"
)

// auditEmitter writes one structured audit line per committed mutation.
type auditEmitter struct {
	logger *slog.Logger
}

func newAuditEmitter(logger *slog.Logger) *auditEmitter {
	return &auditEmitter{logger: logger}
}

func (e *auditEmitter) emit(ctx context.Context, event string, attributes ...any) {
	if e.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	e.logger.InfoContext(ctx, event, args...)
}
