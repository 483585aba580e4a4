package table_test

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQR(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{"table_7", "7", false},
		{"  table_12\n", "12", false},
		{"table_", "", true},
		{"7", "", true},
		{"TABLE_7", "", true},
		{"table_7/../8", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := table.ParseQR(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, table.ErrInvalidQR)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_BindRelease(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tbl, err := table.New("4", now)
	require.NoError(t, err)
	assert.True(t, tbl.Available())

	items := []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 2, PriceCents: 500}}
	require.NoError(t, tbl.Bind("o1", items, now))
	assert.Equal(t, table.StatusUnavailable, tbl.Status)
	assert.True(t, tbl.BoundTo("o1"))
	assert.False(t, tbl.BoundTo(""))

	items[0].Quantity = 9
	assert.Equal(t, 2, tbl.OrderItems[0].Quantity, "cache holds its own copy")

	err = tbl.Bind("o2", nil, now)
	assert.ErrorIs(t, err, table.ErrTableUnavailable)
	assert.Equal(t, "o1", tbl.OrderID)

	tbl.Release(now)
	tbl.Release(now)
	assert.True(t, tbl.Available())
	assert.Empty(t, tbl.OrderID)
	assert.Empty(t, tbl.OrderItems)
}

func TestNew_InvalidID(t *testing.T) {
	_, err := table.New("", time.Now())
	assert.ErrorIs(t, err, table.ErrInvalidTableID)
}
