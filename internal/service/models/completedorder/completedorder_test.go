package completedorder_test

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMethod(t *testing.T) {
	pm, err := completedorder.ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, completedorder.PaymentCash, pm)

	pm, err = completedorder.ParsePaymentMethod("card")
	require.NoError(t, err)
	assert.Equal(t, completedorder.PaymentCard, pm)

	_, err = completedorder.ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, completedorder.ErrInvalidPaymentMethod)
}

func TestFromOrder(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o := order.Order{
		ID:         "o1",
		TableID:    "3",
		Items:      []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 2, PriceCents: 500}},
		TotalCents: 1000,
		Status:     order.StatusReady,
		CreatedAt:  created,
	}

	c := completedorder.FromOrder("c1", o, completedorder.PaymentOther, created.Add(time.Hour))
	o.Items[0].Quantity = 7

	assert.Equal(t, "o1", c.OrderID)
	assert.Equal(t, "3", c.TableID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, created, c.OrderedAt)
	assert.Equal(t, created.Add(time.Hour), c.CompletedAt)
}
