package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, sess session.Session, tableID string, items []orderitem.OrderItem) (*order.Order, error)
	AddItem(ctx context.Context, sess session.Session, orderID string, item orderitem.OrderItem) (*order.Order, error)
	SetStatus(ctx context.Context, sess session.Session, orderID string, status order.Status) (*order.Order, error)
	Archive(
		ctx context.Context,
		sess session.Session,
		orderID string,
		method completedorder.PaymentMethod,
	) (*completedorder.CompletedOrder, error)
	GetOrder(ctx context.Context, sess session.Session, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, sess session.Session, filter order.QueryOrdersModel) ([]order.Order, error)
}

type ItemRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

func (i ItemRequest) toModel() orderitem.OrderItem {
	return orderitem.OrderItem{MenuItemID: i.MenuItemID, Quantity: i.Quantity}
}

type CreateOrderRequest struct {
	TableID string        `json:"tableId" validate:"required"`
	Items   []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ArchiveRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=cash card other"`
}

func Create(w http.ResponseWriter, r *http.Request, service service) {
	var req CreateOrderRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "create order", err)

		return
	}

	items := make([]orderitem.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, item.toModel())
	}

	o, err := service.CreateOrder(r.Context(), httpsession.From(r.Context()), req.TableID, items)
	if err != nil {
		httpio.Error(w, r, "create order", err)

		return
	}

	httpio.JSON(w, http.StatusCreated, o)
}

func AddItem(w http.ResponseWriter, r *http.Request, service service) {
	var req ItemRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "add item", err)

		return
	}

	o, err := service.AddItem(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		httpio.Error(w, r, "add item", err)

		return
	}

	httpio.JSON(w, http.StatusOK, o)
}

func SetStatus(w http.ResponseWriter, r *http.Request, service service) {
	var req SetStatusRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "set status", err)

		return
	}

	o, err := service.SetStatus(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		httpio.Error(w, r, "set status", err)

		return
	}

	httpio.JSON(w, http.StatusOK, o)
}

// Archive records the sale. The body is optional and defaults to cash.
func Archive(w http.ResponseWriter, r *http.Request, service service) {
	var req ArchiveRequest
	if err := httpio.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpio.Error(w, r, "archive order", err)

		return
	}

	sale, err := service.Archive(
		r.Context(),
		httpsession.From(r.Context()),
		chi.URLParam(r, "id"),
		completedorder.PaymentMethod(req.PaymentMethod),
	)
	if err != nil {
		httpio.Error(w, r, "archive order", err)

		return
	}

	httpio.JSON(w, http.StatusOK, sale)
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	o, err := service.GetOrder(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, "get order", err)

		return
	}

	httpio.JSON(w, http.StatusOK, o)
}

// List supports ?status=a,b&tableId=x,y&limit=&offset=.
func List(w http.ResponseWriter, r *http.Request, service service) {
	filter, err := parseFilter(r)
	if err != nil {
		httpio.Error(w, r, "list orders", err)

		return
	}

	orders, err := service.ListOrders(r.Context(), httpsession.From(r.Context()), filter)
	if err != nil {
		httpio.Error(w, r, "list orders", err)

		return
	}

	httpio.JSON(w, http.StatusOK, orders)
}

func parseFilter(r *http.Request) (order.QueryOrdersModel, error) {
	query := r.URL.Query()
	filter := order.QueryOrdersModel{
		IDs:      parseList(query.Get("ids")),
		TableIDs: parseList(query.Get("tableId")),
	}

	for _, s := range parseList(query.Get("status")) {
		status, err := order.ParseStatus(s)
		if err != nil {
			return filter, fmt.Errorf("%w: %q", err, s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var err error
	if filter.Limit, err = parseInt(query.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseInt(query.Get("offset")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", httpio.ErrInvalidRequest, s)
	}

	return n, nil
}
