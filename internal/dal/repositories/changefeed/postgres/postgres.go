package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/jackc/pgx/v5"
)

// ChangeFeed streams row changes published by the notify triggers.
type ChangeFeed struct {
	client *postgres.Client
}

// NewChangeFeed creates a new change feed.
func NewChangeFeed(client *postgres.Client) *ChangeFeed {
	return &ChangeFeed{
		client: client,
	}
}

// Subscribe holds a dedicated pool connection for the whole iteration and
// returns it once the iteration ends.
func (f *ChangeFeed) Subscribe(ctx context.Context, collection change.Collection) iter.Seq2[change.Change, error] {
	return func(yield func(change.Change, error) bool) {
		conn, err := f.client.Pool().Acquire(ctx)
		if err != nil {
			yield(change.Change{}, fmt.Errorf("failed to acquire listen connection: %w", err))

			return
		}
		defer conn.Release()

		channel := pgx.Identifier{collection.Channel()}.Sanitize()
		if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
			yield(change.Change{}, fmt.Errorf("failed to listen on %s: %w", channel, err))

			return
		}
		defer func() {
			// ctx may already be cancelled here.
			if _, err := conn.Exec(context.WithoutCancel(ctx), "UNLISTEN "+channel); err != nil {
				slog.Warn("Failed to unlisten", "channel", channel, "error", err)
				conn.Conn().PgConn().Close(context.WithoutCancel(ctx))
			}
		}()

		slog.InfoContext(ctx, "Change feed subscribed", "collection", collection)
		if !yield(change.Change{Collection: collection, Op: change.OpSubscribed, At: time.Now()}, nil) {
			return
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(change.Change{}, fmt.Errorf("failed to wait for notification: %w", err))

				return
			}

			var c change.Change
			if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
				slog.ErrorContext(ctx, "Malformed change notification", "channel", n.Channel, "error", err)

				continue
			}
			if c.Collection != collection {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}
