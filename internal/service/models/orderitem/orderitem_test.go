package orderitem_test

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestOrderItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    orderitem.OrderItem
		wantErr error
	}{
		{"valid", orderitem.OrderItem{MenuItemID: "m1", Quantity: 1, PriceCents: 0}, nil},
		{"no menu item", orderitem.OrderItem{Quantity: 1}, orderitem.ErrMissingMenuItem},
		{"zero quantity", orderitem.OrderItem{MenuItemID: "m1"}, orderitem.ErrInvalidQuantity},
		{"negative quantity", orderitem.OrderItem{MenuItemID: "m1", Quantity: -2}, orderitem.ErrInvalidQuantity},
		{"negative price", orderitem.OrderItem{MenuItemID: "m1", Quantity: 1, PriceCents: -1}, orderitem.ErrInvalidUnitPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMergeAll(t *testing.T) {
	in := []orderitem.OrderItem{
		{MenuItemID: "soup", Name: "Soup", Quantity: 1, PriceCents: 500},
		{MenuItemID: "cola", Name: "Cola", Quantity: 1, PriceCents: 200},
		{MenuItemID: "soup", Name: "Soup", Quantity: 2, PriceCents: 500},
	}
	want := []orderitem.OrderItem{
		{MenuItemID: "soup", Name: "Soup", Quantity: 3, PriceCents: 500},
		{MenuItemID: "cola", Name: "Cola", Quantity: 1, PriceCents: 200},
	}

	got := orderitem.MergeAll(in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeAll() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, in[0].Quantity, "input must not be mutated")
	assert.Equal(t, int64(1700), orderitem.Total(got))
}

func TestClone(t *testing.T) {
	assert.Nil(t, orderitem.Clone(nil))

	src := []orderitem.OrderItem{{MenuItemID: "a", Quantity: 1}}
	dst := orderitem.Clone(src)
	dst[0].Quantity = 5
	assert.Equal(t, 1, src[0].Quantity)
}
