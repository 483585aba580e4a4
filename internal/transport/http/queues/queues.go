package queues

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
)

// service is an interface for the service layer.
type service interface {
	KitchenQueue(ctx context.Context, sess session.Session) ([]order.KitchenTicket, error)
	CashierQueue(ctx context.Context, sess session.Session) ([]order.Order, error)
	ListSales(
		ctx context.Context,
		sess session.Session,
		filter completedorder.QueryCompletedOrdersModel,
	) ([]completedorder.CompletedOrder, error)
}

// Kitchen lists the orders to cook with their dwell time.
func Kitchen(w http.ResponseWriter, r *http.Request, service service) {
	tickets, err := service.KitchenQueue(r.Context(), httpsession.From(r.Context()))
	if err != nil {
		httpio.Error(w, r, "kitchen queue", err)

		return
	}

	httpio.JSON(w, http.StatusOK, tickets)
}

// Cashier lists the orders waiting for payment.
func Cashier(w http.ResponseWriter, r *http.Request, service service) {
	orders, err := service.CashierQueue(r.Context(), httpsession.From(r.Context()))
	if err != nil {
		httpio.Error(w, r, "cashier queue", err)

		return
	}

	httpio.JSON(w, http.StatusOK, orders)
}

// Sales lists archived sales. Supports ?from=&to= (RFC 3339) and ?limit=&offset=.
func Sales(w http.ResponseWriter, r *http.Request, service service) {
	filter, err := parseSalesFilter(r)
	if err != nil {
		httpio.Error(w, r, "list sales", err)

		return
	}

	sales, err := service.ListSales(r.Context(), httpsession.From(r.Context()), filter)
	if err != nil {
		httpio.Error(w, r, "list sales", err)

		return
	}

	httpio.JSON(w, http.StatusOK, sales)
}

func parseSalesFilter(r *http.Request) (completedorder.QueryCompletedOrdersModel, error) {
	query := r.URL.Query()
	var filter completedorder.QueryCompletedOrdersModel

	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		v := query.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("%w: %s must be RFC 3339", httpio.ErrInvalidRequest, key)
		}
		*dst = t
	}

	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := query.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("%w: %s must be a non-negative integer", httpio.ErrInvalidRequest, key)
		}
		*dst = n
	}

	return filter, nil
}
