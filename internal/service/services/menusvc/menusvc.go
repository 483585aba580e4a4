package menusvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("menusvc")

// MenuService manages the menu catalog.
type MenuService struct {
	newUOW   iuow.Factory
	now      func() time.Time
	newID    func() string
	currency currency.Currency
}

// option is a function that configures the MenuService.
type option func(*MenuService)

// MustNewMenuService creates a new MenuService.
func MustNewMenuService(opts ...option) *MenuService {
	s := &MenuService{
		now:      time.Now,
		newID:    uuid.NewString,
		currency: currency.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("menusvc: unit of work factory is required")
	}

	return s
}

// WithUnitOfWork sets the unit of work factory for the MenuService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.Factory) option {
	return func(s *MenuService) {
		s.newUOW = f
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *MenuService) {
		s.now = now
	}
}

// WithCurrency sets the currency of items created without one.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(c currency.Currency) option {
	return func(s *MenuService) {
		s.currency = c
	}
}

// List returns the menu, optionally filtered by category.
func (s *MenuService) List(
	ctx context.Context,
	sess session.Session,
	category menuitem.Category,
) ([]menuitem.MenuItem, error) {
	ctx, span := tracer.Start(ctx, "MenuService.List")
	defer span.End()

	if err := sess.Require(session.RoleWaiter, session.RoleCashier, session.RoleKitchen, session.RoleAdmin); err != nil {
		return nil, err
	}
	if category != "" {
		if _, err := menuitem.ParseCategory(string(category)); err != nil {
			return nil, err
		}
	}

	return s.newUOW().MenuItemRepository().List(ctx, category)
}

// Get returns one menu item.
func (s *MenuService) Get(ctx context.Context, sess session.Session, id string) (*menuitem.MenuItem, error) {
	if err := sess.Require(session.RoleWaiter, session.RoleCashier, session.RoleKitchen, session.RoleAdmin); err != nil {
		return nil, err
	}

	return s.newUOW().MenuItemRepository().Get(ctx, id)
}

func (s *MenuService) Create(ctx context.Context, sess session.Session, m menuitem.MenuItem) (*menuitem.MenuItem, error) {
	ctx, span := tracer.Start(ctx, "MenuService.Create")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.now()
	m.ID = s.newID()
	if m.Currency == "" {
		m.Currency = s.currency
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.newUOW().MenuItemRepository().Create(ctx, m); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Menu item created", "menu_item_id", m.ID, "name", m.Name, "price_cents", m.PriceCents)

	return &m, nil
}

// Update replaces a menu item. Open orders keep the price they were taken at.
func (s *MenuService) Update(ctx context.Context, sess session.Session, m menuitem.MenuItem) (*menuitem.MenuItem, error) {
	ctx, span := tracer.Start(ctx, "MenuService.Update")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return nil, err
	}

	repo := s.newUOW().MenuItemRepository()
	existing, err := repo.Get(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.now()
	if m.Currency == "" {
		m.Currency = existing.Currency
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, m); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Menu item updated", "menu_item_id", m.ID, "price_cents", m.PriceCents)

	return &m, nil
}

func (s *MenuService) Delete(ctx context.Context, sess session.Session, id string) error {
	ctx, span := tracer.Start(ctx, "MenuService.Delete")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return err
	}
	if err := s.newUOW().MenuItemRepository().Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Menu item deleted", "menu_item_id", id)

	return nil
}
