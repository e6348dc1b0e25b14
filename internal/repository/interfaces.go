package repository

import (
	"context"

	"github.com/ethflow/rpc-gateway/internal/models"
)

// Repository aggregates all repository interfaces
type Repository interface {
	Request() RequestRepositoryInterface
	Event() EventRepositoryInterface
}

// RequestRepositoryInterface defines the durable request log. The gateway
// treats LogRequest as best-effort: a returned error is logged and dropped,
// never surfaced to the caller.
type RequestRepositoryInterface interface {
	LogRequest(ctx context.Context, rec *models.RequestRecord) error
	GetRequestLogs(ctx context.Context, limit int) ([]*models.RequestRecord, error)
}

// EventRepositoryInterface defines operational event logging
type EventRepositoryInterface interface {
	LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error
}
