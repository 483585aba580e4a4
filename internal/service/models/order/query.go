package order

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	IDs      []string `json:"ids,omitempty"`
	TableIDs []string `json:"tableIds,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
