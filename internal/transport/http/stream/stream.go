// Package stream serves live views as server-sent events. Table and order
// streams send a full snapshot on connect and after every change; the
// notification stream forwards ready notifications.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
)

// HeartbeatInterval keeps idle connections open through proxies.
var HeartbeatInterval = 15 * time.Second

type watcher interface {
	Watch(collection change.Collection) (<-chan change.Change, func(), error)
}

type tableService interface {
	ListTables(ctx context.Context, sess session.Session) ([]table.Table, error)
}

type orderService interface {
	ListOrders(ctx context.Context, sess session.Session, filter order.QueryOrdersModel) ([]order.Order, error)
}

type notifier interface {
	Subscribe(sess session.Session) (<-chan notification.OrderReady, func(), error)
}

// Tables streams snapshots of every table.
func Tables(w http.ResponseWriter, r *http.Request, watcher watcher, service tableService) {
	snapshots(w, r, "stream tables", watcher, []change.Collection{change.CollectionTables},
		func(ctx context.Context, sess session.Session) (any, error) {
			return service.ListTables(ctx, sess)
		},
	)
}

// Orders streams snapshots of the open orders.
func Orders(w http.ResponseWriter, r *http.Request, watcher watcher, service orderService) {
	snapshots(w, r, "stream orders", watcher, []change.Collection{change.CollectionOrders},
		func(ctx context.Context, sess session.Session) (any, error) {
			return service.ListOrders(ctx, sess, order.QueryOrdersModel{})
		},
	)
}

// Notifications streams ready notifications to a waiter.
func Notifications(w http.ResponseWriter, r *http.Request, service notifier) {
	ch, cancel, err := service.Subscribe(httpsession.From(r.Context()))
	if err != nil {
		httpio.Error(w, r, "stream notifications", err)

		return
	}
	defer cancel()

	sse, err := newWriter(w)
	if err != nil {
		httpio.Error(w, r, "stream notifications", err)

		return
	}

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := sse.ping(); err != nil {
				return
			}
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.send("order_ready", n); err != nil {
				slog.DebugContext(r.Context(), "Notification stream closed", "error", err)

				return
			}
		}
	}
}

func snapshots(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	watcher watcher,
	collections []change.Collection,
	load func(ctx context.Context, sess session.Session) (any, error),
) {
	ctx := r.Context()
	sess := httpsession.From(ctx)

	changes := make([]<-chan change.Change, 0, len(collections))
	for _, c := range collections {
		ch, cancel, err := watcher.Watch(c)
		if err != nil {
			httpio.Error(w, r, action, err)

			return
		}
		defer cancel()
		changes = append(changes, ch)
	}

	snapshot, err := load(ctx, sess)
	if err != nil {
		httpio.Error(w, r, action, err)

		return
	}

	sse, err := newWriter(w)
	if err != nil {
		httpio.Error(w, r, action, err)

		return
	}
	if err := sse.send("snapshot", snapshot); err != nil {
		return
	}

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	merged := merge(ctx, changes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := sse.ping(); err != nil {
				return
			}
		case _, ok := <-merged:
			if !ok {
				return
			}
			snapshot, err := load(ctx, sess)
			if err != nil {
				slog.WarnContext(ctx, "Failed to reload snapshot", "action", action, "error", err)
				_ = sse.send("error", httpio.ErrorResponse{Error: action + ": reload failed"})

				return
			}
			if err := sse.send("snapshot", snapshot); err != nil {
				return
			}
		}
	}
}

// merge forwards wake-ups of all channels into one that coalesces bursts.
func merge(ctx context.Context, chans []<-chan change.Change) <-chan struct{} {
	out := make(chan struct{}, 1)
	for _, ch := range chans {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	return out
}

type writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newWriter(w http.ResponseWriter) (*writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by %T", w)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &writer{w: w, flusher: flusher}, nil
}

func (s *writer) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()

	return nil
}

func (s *writer) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()

	return nil
}
