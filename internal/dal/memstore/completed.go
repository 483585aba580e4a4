package memstore

import (
	"context"
	"slices"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
)

// CompletedOrderRepository keeps archived sales keyed by order id.
type CompletedOrderRepository struct {
	tx *txn
}

func (r *CompletedOrderRepository) Insert(_ context.Context, c completedorder.CompletedOrder) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.completed[c.OrderID]; ok {
			return nil, completedorder.ErrAlreadyArchived
		}
		d.completed[c.OrderID] = c.Clone()

		return []change.Change{{
			Collection: change.CollectionCompletedOrders,
			Op:         change.OpAdded,
			ID:         c.ID,
			TableID:    c.TableID,
			TotalCents: c.TotalCents,
			At:         c.CompletedAt,
		}}, nil
	})
}

func (r *CompletedOrderRepository) GetByOrderID(
	_ context.Context,
	orderID string,
) (*completedorder.CompletedOrder, error) {
	var out completedorder.CompletedOrder
	err := r.tx.view(func(d *data) error {
		c, ok := d.completed[orderID]
		if !ok {
			return completedorder.ErrCompletedNotFound
		}
		out = c.Clone()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *CompletedOrderRepository) Query(
	_ context.Context,
	filter *completedorder.QueryCompletedOrdersModel,
) ([]completedorder.CompletedOrder, error) {
	var out []completedorder.CompletedOrder
	err := r.tx.view(func(d *data) error {
		for _, c := range d.completed {
			if !filter.From.IsZero() && c.CompletedAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && !c.CompletedAt.Before(filter.To) {
				continue
			}
			out = append(out, c.Clone())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b completedorder.CompletedOrder) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})

	return page(out, filter.Offset, filter.Limit), nil
}
