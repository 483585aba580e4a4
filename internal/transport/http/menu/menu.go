package menu

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	List(ctx context.Context, sess session.Session, category menuitem.Category) ([]menuitem.MenuItem, error)
	Create(ctx context.Context, sess session.Session, m menuitem.MenuItem) (*menuitem.MenuItem, error)
	Update(ctx context.Context, sess session.Session, m menuitem.MenuItem) (*menuitem.MenuItem, error)
	Delete(ctx context.Context, sess session.Session, id string) error
}

type MenuItemRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	PriceCents  int64  `json:"priceCents" validate:"gte=0"`
	Currency    string `json:"currency" validate:"omitempty,oneof=MXN USD EUR RUB"`
	Category    string `json:"category" validate:"required,oneof=starter main dessert drink"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

func (m MenuItemRequest) toModel(id string) menuitem.MenuItem {
	return menuitem.MenuItem{
		ID:          id,
		Name:        m.Name,
		Description: m.Description,
		PriceCents:  m.PriceCents,
		Currency:    currency.Currency(m.Currency),
		Category:    menuitem.Category(m.Category),
		ImageURL:    m.ImageURL,
	}
}

// List returns the menu. Supports ?category=.
func List(w http.ResponseWriter, r *http.Request, service service) {
	category := menuitem.Category(r.URL.Query().Get("category"))
	items, err := service.List(r.Context(), httpsession.From(r.Context()), category)
	if err != nil {
		httpio.Error(w, r, "list menu", err)

		return
	}

	httpio.JSON(w, http.StatusOK, items)
}

func Create(w http.ResponseWriter, r *http.Request, service service) {
	var req MenuItemRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "create menu item", err)

		return
	}

	m, err := service.Create(r.Context(), httpsession.From(r.Context()), req.toModel(""))
	if err != nil {
		httpio.Error(w, r, "create menu item", err)

		return
	}

	httpio.JSON(w, http.StatusCreated, m)
}

func Update(w http.ResponseWriter, r *http.Request, service service) {
	var req MenuItemRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "update menu item", err)

		return
	}

	m, err := service.Update(r.Context(), httpsession.From(r.Context()), req.toModel(chi.URLParam(r, "id")))
	if err != nil {
		httpio.Error(w, r, "update menu item", err)

		return
	}

	httpio.JSON(w, http.StatusOK, m)
}

func Delete(w http.ResponseWriter, r *http.Request, service service) {
	if err := service.Delete(r.Context(), httpsession.From(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpio.Error(w, r, "delete menu item", err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
