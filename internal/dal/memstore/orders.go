package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
)

// OrderRepository is the in-memory order header store.
type OrderRepository struct {
	tx *txn
}

func orderChange(op change.Op, o order.Order, prev order.Status, at time.Time) change.Change {
	return change.Change{
		Collection: change.CollectionOrders,
		Op:         op,
		ID:         o.ID,
		TableID:    o.TableID,
		Status:     o.Status,
		PrevStatus: prev,
		TotalCents: o.TotalCents,
		At:         at,
	}
}

func (r *OrderRepository) Insert(_ context.Context, o order.Order) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.orders[o.ID]; ok {
			return nil, fmt.Errorf("order %s already exists", o.ID)
		}
		o.Items = nil
		d.orders[o.ID] = o

		return []change.Change{orderChange(change.OpAdded, o, "", o.CreatedAt)}, nil
	})
}

func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	var out order.Order
	err := r.tx.view(func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return order.ErrOrderNotFound
		}
		out = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *OrderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var out []order.Order
	err := r.tx.view(func(d *data) error {
		for _, o := range d.orders {
			if matchOrder(o, filter) {
				out = append(out, o)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b order.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return page(out, filter.Offset, filter.Limit), nil
}

func matchOrder(o order.Order, filter *order.QueryOrdersModel) bool {
	if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, o.ID) {
		return false
	}
	if len(filter.TableIDs) > 0 && !slices.Contains(filter.TableIDs, o.TableID) {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
		return false
	}

	return true
}

func (r *OrderRepository) UpdateTotal(_ context.Context, id string, totalCents int64, updatedAt time.Time) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		o, ok := d.orders[id]
		if !ok {
			return nil, order.ErrOrderNotFound
		}
		o.TotalCents = totalCents
		o.UpdatedAt = updatedAt
		d.orders[id] = o

		return []change.Change{orderChange(change.OpModified, o, o.Status, updatedAt)}, nil
	})
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status order.Status, updatedAt time.Time) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		o, ok := d.orders[id]
		if !ok {
			return nil, order.ErrOrderNotFound
		}
		prev := o.Status
		o.Status = status
		o.UpdatedAt = updatedAt
		d.orders[id] = o

		return []change.Change{orderChange(change.OpModified, o, prev, updatedAt)}, nil
	})
}

func (r *OrderRepository) Delete(_ context.Context, id string) (bool, error) {
	deleted := false
	err := r.tx.update(func(d *data) ([]change.Change, error) {
		o, ok := d.orders[id]
		if !ok {
			return nil, nil
		}
		delete(d.orders, id)
		delete(d.items, id)
		deleted = true

		return []change.Change{orderChange(change.OpRemoved, o, o.Status, time.Now())}, nil
	})

	return deleted, err
}
