package memstore

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
)

// TableRepository is the in-memory table registry.
type TableRepository struct {
	tx *txn
}

func tableChange(op change.Op, id string, at time.Time) change.Change {
	return change.Change{Collection: change.CollectionTables, Op: op, ID: id, At: at}
}

func (r *TableRepository) Create(_ context.Context, t table.Table) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.tables[t.ID]; ok {
			return nil, table.ErrTableExists
		}
		d.tables[t.ID] = t.Clone()

		return []change.Change{tableChange(change.OpAdded, t.ID, t.UpdatedAt)}, nil
	})
}

func (r *TableRepository) Get(_ context.Context, id string) (*table.Table, error) {
	var out table.Table
	err := r.tx.view(func(d *data) error {
		t, ok := d.tables[id]
		if !ok {
			return table.ErrTableNotFound
		}
		out = t.Clone()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// GetForUpdate is Get; the unit of work already holds the store lock.
func (r *TableRepository) GetForUpdate(ctx context.Context, id string) (*table.Table, error) {
	return r.Get(ctx, id)
}

func (r *TableRepository) List(_ context.Context) ([]table.Table, error) {
	var out []table.Table
	err := r.tx.view(func(d *data) error {
		ids := slices.SortedFunc(maps.Keys(d.tables), compareTableIDs)
		out = make([]table.Table, 0, len(ids))
		for _, id := range ids {
			out = append(out, d.tables[id].Clone())
		}

		return nil
	})

	return out, err
}

func (r *TableRepository) Save(_ context.Context, t table.Table) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.tables[t.ID]; !ok {
			return nil, table.ErrTableNotFound
		}
		d.tables[t.ID] = t.Clone()

		return []change.Change{tableChange(change.OpModified, t.ID, t.UpdatedAt)}, nil
	})
}

func (r *TableRepository) RefreshItems(
	_ context.Context,
	orderID string,
	items []orderitem.OrderItem,
	now time.Time,
) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		var changes []change.Change
		for id, t := range d.tables {
			if !t.BoundTo(orderID) {
				continue
			}
			t.OrderItems = orderitem.Clone(items)
			t.UpdatedAt = now
			d.tables[id] = t
			changes = append(changes, tableChange(change.OpModified, id, now))
		}

		return changes, nil
	})
}

func (r *TableRepository) ReleaseByOrder(_ context.Context, orderID string, now time.Time) (int64, error) {
	return r.release(now, func(d *data, t table.Table) bool {
		return t.BoundTo(orderID)
	})
}

func (r *TableRepository) ReleaseOrphaned(_ context.Context, now time.Time) (int64, error) {
	return r.release(now, func(d *data, t table.Table) bool {
		if t.OrderID == "" {
			return false
		}
		_, exists := d.orders[t.OrderID]

		return !exists
	})
}

func (r *TableRepository) release(now time.Time, match func(d *data, t table.Table) bool) (int64, error) {
	var released int64
	err := r.tx.update(func(d *data) ([]change.Change, error) {
		var changes []change.Change
		for id, t := range d.tables {
			if !match(d, t) {
				continue
			}
			t.Release(now)
			d.tables[id] = t
			released++
			changes = append(changes, tableChange(change.OpModified, id, now))
		}

		return changes, nil
	})

	return released, err
}
