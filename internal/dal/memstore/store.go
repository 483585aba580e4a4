// Package memstore is an in-process implementation of the repositories, the
// unit of work and the change feed. It backs tests and the "memory" store
// driver.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"sync"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/icompletedorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/imenuitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/itablerepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
)

var ErrTxActive = errors.New("transaction already started")

// Store holds every collection behind a single mutex. A transaction holds the
// mutex from Begin to Commit or Rollback, which gives it the isolation of
// row locks without tracking rows.
type Store struct {
	mu   sync.Mutex
	data *data
	feed *Feed
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data: newData(),
		feed: NewFeed(),
	}
}

// Feed returns the change feed fed by committed writes.
func (s *Store) Feed() *Feed {
	return s.feed
}

// NewUnitOfWork returns a unit of work over the store.
func (s *Store) NewUnitOfWork() iuow.UnitOfWork {
	return &unitOfWork{tx: &txn{store: s}}
}

// UserRepository returns a non-transactional user repository.
func (s *Store) UserRepository() *UserRepository {
	return &UserRepository{tx: &txn{store: s}}
}

// OutboxRepository returns a non-transactional outbox repository.
func (s *Store) OutboxRepository() *OutboxRepository {
	return &OutboxRepository{tx: &txn{store: s}}
}

type data struct {
	tables    map[string]table.Table
	orders    map[string]order.Order
	items     map[string][]orderitem.OrderItem
	completed map[string]completedorder.CompletedOrder
	menu      map[string]menuitem.MenuItem
	users     map[string]user.User
	outbox    map[int64]outbox.OutboxMessage
	outboxSeq int64
}

func newData() *data {
	return &data{
		tables:    map[string]table.Table{},
		orders:    map[string]order.Order{},
		items:     map[string][]orderitem.OrderItem{},
		completed: map[string]completedorder.CompletedOrder{},
		menu:      map[string]menuitem.MenuItem{},
		users:     map[string]user.User{},
		outbox:    map[int64]outbox.OutboxMessage{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.tables {
		c.tables[k] = v.Clone()
	}
	for k, v := range d.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range d.items {
		c.items[k] = orderitem.Clone(v)
	}
	for k, v := range d.completed {
		c.completed[k] = v.Clone()
	}
	for k, v := range d.menu {
		c.menu[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.outbox {
		v.Payload = append([]byte(nil), v.Payload...)
		c.outbox[k] = v
	}
	c.outboxSeq = d.outboxSeq

	return c
}

// txn is the state shared by a unit of work and its repositories.
type txn struct {
	store    *Store
	active   bool
	snapshot *data
	pending  []change.Change
}

func (t *txn) view(fn func(d *data) error) error {
	if t.active {
		return fn(t.store.data)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	return fn(t.store.data)
}

// update runs fn and publishes its changes once they are committed.
func (t *txn) update(fn func(d *data) ([]change.Change, error)) error {
	if t.active {
		changes, err := fn(t.store.data)
		if err != nil {
			return err
		}
		t.pending = append(t.pending, changes...)

		return nil
	}

	t.store.mu.Lock()
	changes, err := fn(t.store.data)
	t.store.mu.Unlock()
	if err != nil {
		return err
	}
	t.store.feed.publish(changes...)

	return nil
}

type unitOfWork struct {
	tx *txn
}

func (u *unitOfWork) Begin(_ context.Context) error {
	if u.tx.active {
		return ErrTxActive
	}
	u.tx.store.mu.Lock()
	u.tx.snapshot = u.tx.store.data.clone()
	u.tx.active = true

	return nil
}

func (u *unitOfWork) Commit(_ context.Context) error {
	if !u.tx.active {
		return nil
	}
	changes := u.tx.pending
	u.tx.reset()
	u.tx.store.mu.Unlock()
	u.tx.store.feed.publish(changes...)

	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	if !u.tx.active {
		return nil
	}
	u.tx.store.data = u.tx.snapshot
	u.tx.reset()
	u.tx.store.mu.Unlock()

	return nil
}

func (t *txn) reset() {
	t.active = false
	t.snapshot = nil
	t.pending = nil
}

func (u *unitOfWork) TableRepository() itablerepo.ITableRepository {
	return &TableRepository{tx: u.tx}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &OrderRepository{tx: u.tx}
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &OrderItemRepository{tx: u.tx}
}

func (u *unitOfWork) CompletedOrderRepository() icompletedorderrepo.ICompletedOrderRepository {
	return &CompletedOrderRepository{tx: u.tx}
}

func (u *unitOfWork) MenuItemRepository() imenuitemrepo.IMenuItemRepository {
	return &MenuItemRepository{tx: u.tx}
}

// page applies offset and limit to a sorted slice.
func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}

// compareTableIDs orders "2" before "10", like ORDER BY length(id), id.
func compareTableIDs(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}

	return cmp.Compare(a, b)
}
