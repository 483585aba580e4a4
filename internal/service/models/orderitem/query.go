package orderitem

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	OrderIDs    []string `json:"orderIds,omitempty"`
	MenuItemIDs []string `json:"menuItemIds,omitempty"`
}
