package memstore

import (
	"context"
	"maps"
	"slices"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

// OrderItemRepository keeps order lines in insertion order.
type OrderItemRepository struct {
	tx *txn
}

func (r *OrderItemRepository) BulkInsert(_ context.Context, orderID string, items []orderitem.OrderItem) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.orders[orderID]; !ok {
			return nil, order.ErrOrderNotFound
		}
		lines := d.items[orderID]
		for _, item := range items {
			item.OrderID = orderID
			lines = orderitem.Merge(lines, item)
		}
		d.items[orderID] = lines

		return nil, nil
	})
}

func (r *OrderItemRepository) Upsert(ctx context.Context, orderID string, item orderitem.OrderItem) error {
	return r.BulkInsert(ctx, orderID, []orderitem.OrderItem{item})
}

func (r *OrderItemRepository) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	var out []orderitem.OrderItem
	err := r.tx.view(func(d *data) error {
		orderIDs := filter.OrderIDs
		if len(orderIDs) == 0 {
			orderIDs = slices.Sorted(maps.Keys(d.items))
		}
		for _, id := range orderIDs {
			for _, item := range d.items[id] {
				if len(filter.MenuItemIDs) > 0 && !slices.Contains(filter.MenuItemIDs, item.MenuItemID) {
					continue
				}
				out = append(out, item)
			}
		}

		return nil
	})

	return out, err
}
