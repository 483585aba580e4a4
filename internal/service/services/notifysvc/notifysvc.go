package notifysvc

import (
	"context"
	"log/slog"

	"github.com/corray333/backend-labs/pos/internal/service/broadcast"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
)

// NotifyService delivers order-ready notifications to the waiters connected
// to this instance.
type NotifyService struct {
	hub    *broadcast.Hub[notification.OrderReady]
	buffer int
}

// option is a function that configures the NotifyService.
type option func(*NotifyService)

// MustNewNotifyService creates a new NotifyService.
func MustNewNotifyService(opts ...option) *NotifyService {
	s := &NotifyService{
		hub:    broadcast.NewHub[notification.OrderReady](),
		buffer: 16,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithBuffer sets how many notifications a slow subscriber may lag behind.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBuffer(n int) option {
	return func(s *NotifyService) {
		s.buffer = n
	}
}

// Deliver hands n to every connected waiter.
func (s *NotifyService) Deliver(ctx context.Context, n notification.OrderReady) error {
	dropped := s.hub.Publish(n)
	slog.InfoContext(ctx, "Order ready notification delivered",
		"order_id", n.OrderID,
		"table_id", n.TableID,
		"subscribers", s.hub.Len(),
	)
	if dropped > 0 {
		slog.WarnContext(ctx, "Slow notification subscribers skipped", "order_id", n.OrderID, "dropped", dropped)
	}

	return nil
}

// Publish delivers n in-process. It lets the service stand in for the
// message broker when the application runs without one.
func (s *NotifyService) Publish(ctx context.Context, n notification.OrderReady) error {
	return s.Deliver(ctx, n)
}

// Subscribe streams notifications to a waiter until cancel is called.
func (s *NotifyService) Subscribe(sess session.Session) (<-chan notification.OrderReady, func(), error) {
	if err := sess.Require(session.RoleWaiter, session.RoleAdmin); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(s.buffer)

	return ch, cancel, nil
}
