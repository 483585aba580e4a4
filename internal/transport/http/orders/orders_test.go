package orders_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/corray333/backend-labs/pos/internal/transport/http/orders"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var cashier = session.Session{UserID: "u-1", Role: session.RoleCashier}

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) CreateOrder(
	ctx context.Context,
	sess session.Session,
	tableID string,
	items []orderitem.OrderItem,
) (*order.Order, error) {
	args := m.Called(ctx, sess, tableID, items)
	o, _ := args.Get(0).(*order.Order)

	return o, args.Error(1)
}

func (m *serviceMock) AddItem(
	ctx context.Context,
	sess session.Session,
	orderID string,
	item orderitem.OrderItem,
) (*order.Order, error) {
	args := m.Called(ctx, sess, orderID, item)
	o, _ := args.Get(0).(*order.Order)

	return o, args.Error(1)
}

func (m *serviceMock) SetStatus(
	ctx context.Context,
	sess session.Session,
	orderID string,
	status order.Status,
) (*order.Order, error) {
	args := m.Called(ctx, sess, orderID, status)
	o, _ := args.Get(0).(*order.Order)

	return o, args.Error(1)
}

func (m *serviceMock) Archive(
	ctx context.Context,
	sess session.Session,
	orderID string,
	method completedorder.PaymentMethod,
) (*completedorder.CompletedOrder, error) {
	args := m.Called(ctx, sess, orderID, method)
	c, _ := args.Get(0).(*completedorder.CompletedOrder)

	return c, args.Error(1)
}

func (m *serviceMock) GetOrder(ctx context.Context, sess session.Session, orderID string) (*order.Order, error) {
	args := m.Called(ctx, sess, orderID)
	o, _ := args.Get(0).(*order.Order)

	return o, args.Error(1)
}

func (m *serviceMock) ListOrders(
	ctx context.Context,
	sess session.Session,
	filter order.QueryOrdersModel,
) ([]order.Order, error) {
	args := m.Called(ctx, sess, filter)
	o, _ := args.Get(0).([]order.Order)

	return o, args.Error(1)
}

func newRouter(svc *serviceMock) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(httpsession.WithSession(r.Context(), cashier)))
		})
	})
	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) { orders.List(w, r, svc) })
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) { orders.Create(w, r, svc) })
	r.Post("/orders/{id}/archive", func(w http.ResponseWriter, r *http.Request) { orders.Archive(w, r, svc) })

	return r
}

func TestList(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantFilter *order.QueryOrdersModel
		wantCode   int
	}{
		{
			name:  "all filters",
			query: "?status=ready,preparing&tableId=4,%205&limit=10&offset=20",
			wantFilter: &order.QueryOrdersModel{
				TableIDs: []string{"4", "5"},
				Statuses: []order.Status{order.StatusReady, order.StatusPreparing},
				Limit:    10,
				Offset:   20,
			},
			wantCode: http.StatusOK,
		},
		{
			name:       "no filters",
			wantFilter: &order.QueryOrdersModel{},
			wantCode:   http.StatusOK,
		},
		{name: "unknown status", query: "?status=served", wantCode: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{}
			if tt.wantFilter != nil {
				svc.On("ListOrders", mock.Anything, cashier, *tt.wantFilter).Return([]order.Order{}, nil).Once()
			}

			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCreate_RejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"tableId":`},
		{name: "no items", body: `{"tableId":"4","items":[]}`},
		{name: "zero quantity", body: `{"tableId":"4","items":[{"menuItemId":"soup","quantity":0}]}`},
		{name: "unknown field", body: `{"tableId":"4","items":[{"menuItemId":"soup","quantity":1}],"note":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{}

			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			svc.AssertNotCalled(t, "CreateOrder")
		})
	}
}

func TestArchive(t *testing.T) {
	sale := &completedorder.CompletedOrder{ID: "s-1", OrderID: "o-1", PaymentMethod: completedorder.PaymentCash}

	tests := []struct {
		name       string
		body       string
		wantMethod completedorder.PaymentMethod
		wantErr    error
		wantCode   int
	}{
		{name: "empty body", wantMethod: "", wantCode: http.StatusOK},
		{name: "card", body: `{"paymentMethod":"card"}`, wantMethod: completedorder.PaymentCard, wantCode: http.StatusOK},
		{
			name:       "not ready",
			body:       `{"paymentMethod":"cash"}`,
			wantMethod: completedorder.PaymentCash,
			wantErr:    order.ErrOrderNotReady,
			wantCode:   http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{}
			if tt.wantErr != nil {
				svc.On("Archive", mock.Anything, cashier, "o-1", tt.wantMethod).Return(nil, tt.wantErr).Once()
			} else {
				svc.On("Archive", mock.Anything, cashier, "o-1", tt.wantMethod).Return(sale, nil).Once()
			}

			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/o-1/archive", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rr.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("invalid method", func(t *testing.T) {
		svc := &serviceMock{}

		rr := httptest.NewRecorder()
		body := strings.NewReader(`{"paymentMethod":"crypto"}`)
		newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/o-1/archive", body))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Archive")
	})
}
