package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
)

// OutboxRepository is the in-memory outbox.
type OutboxRepository struct {
	tx *txn
}

func (r *OutboxRepository) Insert(_ context.Context, msg outbox.OutboxMessage) (int64, error) {
	var id int64
	err := r.tx.update(func(d *data) ([]change.Change, error) {
		d.outboxSeq++
		id = d.outboxSeq
		msg.ID = id
		d.outbox[id] = msg

		return nil, nil
	})

	return id, err
}

func (r *OutboxRepository) GetPendingMessages(
	_ context.Context,
	now time.Time,
	limit int,
) ([]outbox.OutboxMessage, error) {
	var out []outbox.OutboxMessage
	err := r.tx.view(func(d *data) error {
		for _, msg := range d.outbox {
			if !msg.NextRetryAt.After(now) && !msg.Exhausted() {
				out = append(out, msg)
			}
		}

		return nil
	})
	slices.SortFunc(out, func(a, b outbox.OutboxMessage) int {
		if c := a.NextRetryAt.Compare(b.NextRetryAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return page(out, 0, limit), err
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		delete(d.outbox, id)

		return nil, nil
	})
}

func (r *OutboxRepository) UpdateRetry(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		msg, ok := d.outbox[id]
		if !ok {
			return nil, nil
		}
		msg.RetryCount = retryCount
		msg.LastError = lastError
		msg.NextRetryAt = nextRetryAt
		msg.UpdatedAt = time.Now()
		d.outbox[id] = msg

		return nil, nil
	})
}

// Len returns the number of stored messages.
func (r *OutboxRepository) Len() int {
	n := 0
	_ = r.tx.view(func(d *data) error {
		n = len(d.outbox)

		return nil
	})

	return n
}
