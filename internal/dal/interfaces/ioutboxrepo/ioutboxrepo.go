package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
)

// IOutboxRepository keeps notifications awaiting redelivery.
type IOutboxRepository interface {
	// Insert stores msg and returns its id.
	Insert(ctx context.Context, msg outbox.OutboxMessage) (int64, error)

	// GetPendingMessages returns messages due at now that still have attempts left.
	// Stores shared by several workers lease the returned messages.
	GetPendingMessages(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error)

	// Delete removes a delivered message.
	Delete(ctx context.Context, id int64) error

	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
