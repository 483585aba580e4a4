// Package syncsvc keeps derived state consistent with the change feeds: it
// frees tables whose orders disappear, announces orders that become ready and
// fans changes out to live views.
package syncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ichangefeed"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iclaimrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/service/broadcast"
	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("syncsvc")

type publisher interface {
	Publish(ctx context.Context, n notification.OrderReady) error
}

// SyncService runs one watch loop per collection.
type SyncService struct {
	feed       ichangefeed.IChangeFeed
	newUOW     iuow.Factory
	claims     iclaimrepo.IClaimRepository
	publisher  publisher
	outboxRepo ioutboxrepo.IOutboxRepository
	exchange   string
	currency   currency.Currency
	claimTTL   time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
	now        func() time.Time
	hubs       map[change.Collection]*broadcast.Hub[change.Change]
}

// option is a function that configures the SyncService.
type option func(*SyncService)

// MustNewSyncService creates a new SyncService.
func MustNewSyncService(opts ...option) *SyncService {
	s := &SyncService{
		currency:   currency.Default,
		claimTTL:   24 * time.Hour,
		minBackoff: 200 * time.Millisecond,
		maxBackoff: 10 * time.Second,
		now:        time.Now,
		hubs:       map[change.Collection]*broadcast.Hub[change.Change]{},
	}
	for _, c := range change.Collections {
		s.hubs[c] = broadcast.NewHub[change.Change]()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feed == nil || s.newUOW == nil || s.claims == nil || s.publisher == nil {
		panic("syncsvc: feed, unit of work, claims and publisher are required")
	}

	return s
}

// WithChangeFeed sets the change feed to watch.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithChangeFeed(feed ichangefeed.IChangeFeed) option {
	return func(s *SyncService) {
		s.feed = feed
	}
}

// WithUnitOfWork sets the unit of work factory used for reconciliation.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.Factory) option {
	return func(s *SyncService) {
		s.newUOW = f
	}
}

// WithClaims sets the store deciding which instance announces an order.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClaims(claims iclaimrepo.IClaimRepository) option {
	return func(s *SyncService) {
		s.claims = claims
	}
}

// WithPublisher sets the notification publisher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublisher(p publisher) option {
	return func(s *SyncService) {
		s.publisher = p
	}
}

// WithOutbox stores notifications that could not be published for later
// redelivery to exchange.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutbox(repo ioutboxrepo.IOutboxRepository, exchange string) option {
	return func(s *SyncService) {
		s.outboxRepo = repo
		s.exchange = exchange
	}
}

// WithCurrency sets the currency reported in notifications.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(c currency.Currency) option {
	return func(s *SyncService) {
		s.currency = c
	}
}

// WithClaimTTL sets how long a ready announcement stays claimed.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClaimTTL(ttl time.Duration) option {
	return func(s *SyncService) {
		s.claimTTL = ttl
	}
}

// WithBackoff sets the restart delay bounds of a broken watch loop.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBackoff(minDelay, maxDelay time.Duration) option {
	return func(s *SyncService) {
		s.minBackoff = minDelay
		s.maxBackoff = maxDelay
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *SyncService) {
		s.now = now
	}
}

// Run watches every collection until ctx is done.
func (s *SyncService) Run(ctx context.Context) error {
	slog.Info("Starting sync service", "collections", len(change.Collections))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range change.Collections {
		g.Go(func() error {
			return s.watch(gctx, c)
		})
	}

	err := g.Wait()
	slog.Info("Sync service stopped")

	return err
}

// Watch streams changes of collection to a live view. The channel has room
// for a single change, so a burst collapses into one wake-up; readers are
// expected to reload their snapshot on every receive.
func (s *SyncService) Watch(collection change.Collection) (<-chan change.Change, func(), error) {
	hub, ok := s.hubs[collection]
	if !ok {
		return nil, nil, fmt.Errorf("unknown collection %q", collection)
	}
	ch, cancel := hub.Subscribe(1)

	return ch, cancel, nil
}

// watch restarts the feed of collection with exponential backoff until ctx
// is done. Backoff resets once a subscription delivers changes.
func (s *SyncService) watch(ctx context.Context, collection change.Collection) error {
	delay := s.minBackoff
	for {
		handled, err := s.consume(ctx, collection)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = change.ErrFeedClosed
		}
		if handled > 0 {
			delay = s.minBackoff
		}

		slog.WarnContext(ctx, "Change feed interrupted, restarting",
			"collection", collection,
			"error", err,
			"handled", handled,
			"backoff", delay,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, s.maxBackoff)
	}
}

func (s *SyncService) consume(ctx context.Context, collection change.Collection) (int, error) {
	handled := 0
	for c, err := range s.feed.Subscribe(ctx, collection) {
		if err != nil {
			return handled, err
		}
		if err := s.handle(ctx, c); err != nil {
			return handled, err
		}
		if !c.Subscribed() {
			handled++
		}
	}

	return handled, nil
}

func (s *SyncService) handle(ctx context.Context, c change.Change) error {
	switch {
	case c.Subscribed() && c.Collection == change.CollectionOrders:
		s.catchUp(ctx)
	case c.OrderRemoved():
		if err := s.releaseTables(ctx, c); err != nil {
			return err
		}
	case c.BecameReady():
		s.announceReady(ctx, c)
	}

	if dropped := s.hubs[c.Collection].Publish(c); dropped > 0 {
		slog.DebugContext(ctx, "Coalesced change for busy watchers", "collection", c.Collection, "dropped", dropped)
	}

	return nil
}

// releaseTables frees any table still bound to a removed order.
func (s *SyncService) releaseTables(ctx context.Context, c change.Change) error {
	ctx, span := tracer.Start(ctx, "SyncService.releaseTables")
	defer span.End()

	released, err := s.newUOW().TableRepository().ReleaseByOrder(ctx, c.ID, s.now())
	if err != nil {
		return fmt.Errorf("failed to release tables of order %s: %w", c.ID, err)
	}
	if released > 0 {
		slog.InfoContext(ctx, "Released tables of removed order", "order_id", c.ID, "released", released)
	}

	return nil
}

// catchUp reconciles what the orders feed may have missed before its
// subscription went live. It runs after the subscription starts, so a change
// committed in between is seen either here or on the feed.
func (s *SyncService) catchUp(ctx context.Context) {
	s.sweep(ctx)
	s.announcePending(ctx)
}

// sweep frees tables whose orders were removed while no loop was watching.
func (s *SyncService) sweep(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "SyncService.sweep")
	defer span.End()

	released, err := s.newUOW().TableRepository().ReleaseOrphaned(ctx, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to release orphaned tables", "error", err)

		return
	}
	if released > 0 {
		slog.InfoContext(ctx, "Released orphaned tables", "released", released)
	}
}

// announcePending runs every ready order through announceReady. Orders
// already announced are filtered out by their claim.
func (s *SyncService) announcePending(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "SyncService.announcePending")
	defer span.End()

	orders, err := s.newUOW().OrderRepository().Query(ctx, &order.QueryOrdersModel{
		Statuses: []order.Status{order.StatusReady},
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to query ready orders", "error", err)

		return
	}

	for _, o := range orders {
		s.announceReady(ctx, change.Change{
			Collection: change.CollectionOrders,
			Op:         change.OpModified,
			ID:         o.ID,
			TableID:    o.TableID,
			Status:     o.Status,
			TotalCents: o.TotalCents,
			At:         o.UpdatedAt,
		})
	}
}

// announceReady publishes the ready notification of an order once across all
// instances. Notifications that cannot be published go to the outbox.
func (s *SyncService) announceReady(ctx context.Context, c change.Change) {
	ctx, span := tracer.Start(ctx, "SyncService.announceReady")
	defer span.End()

	claimed, err := s.claims.Claim(ctx, "ready:"+c.ID, s.claimTTL)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to claim ready notification, publishing anyway",
			"order_id", c.ID,
			"error", err,
		)
		claimed = true
	}
	if !claimed {
		slog.DebugContext(ctx, "Ready notification claimed elsewhere", "order_id", c.ID)

		return
	}

	n := notification.OrderReady{
		OrderID:    c.ID,
		TableID:    c.TableID,
		TotalCents: c.TotalCents,
		Currency:   s.currency,
		ReadyAt:    c.At,
	}
	err = s.publisher.Publish(ctx, n)
	if err == nil {
		slog.InfoContext(ctx, "Order ready notification published", "order_id", c.ID, "table_id", c.TableID)

		return
	}

	slog.WarnContext(ctx, "Failed to publish ready notification", "order_id", c.ID, "error", err)
	if err := s.deferNotification(ctx, n, err); err != nil {
		slog.ErrorContext(ctx, "Ready notification lost", "order_id", c.ID, "error", err)
	}
}

func (s *SyncService) deferNotification(ctx context.Context, n notification.OrderReady, cause error) error {
	if s.outboxRepo == nil {
		return errors.Join(errors.New("no outbox configured"), cause)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := outbox.NewMessage(s.exchange, n.TableID, notification.ContentType, payload, cause, s.now())
	id, err := s.outboxRepo.Insert(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to store notification in outbox: %w", err)
	}

	slog.InfoContext(ctx, "Ready notification queued for redelivery", "order_id", n.OrderID, "outbox_id", id)

	return nil
}
