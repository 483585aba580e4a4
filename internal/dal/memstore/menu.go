package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
)

// MenuItemRepository is the in-memory menu catalog.
type MenuItemRepository struct {
	tx *txn
}

func (r *MenuItemRepository) Create(_ context.Context, m menuitem.MenuItem) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.menu[m.ID]; ok {
			return nil, fmt.Errorf("menu item %s already exists", m.ID)
		}
		d.menu[m.ID] = m

		return nil, nil
	})
}

func (r *MenuItemRepository) Get(_ context.Context, id string) (*menuitem.MenuItem, error) {
	var out menuitem.MenuItem
	err := r.tx.view(func(d *data) error {
		m, ok := d.menu[id]
		if !ok {
			return menuitem.ErrMenuItemNotFound
		}
		out = m

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *MenuItemRepository) List(_ context.Context, category menuitem.Category) ([]menuitem.MenuItem, error) {
	out := []menuitem.MenuItem{}
	err := r.tx.view(func(d *data) error {
		for _, m := range d.menu {
			if category == "" || m.Category == category {
				out = append(out, m)
			}
		}

		return nil
	})
	slices.SortFunc(out, func(a, b menuitem.MenuItem) int {
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out, err
}

func (r *MenuItemRepository) Update(_ context.Context, m menuitem.MenuItem) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.menu[m.ID]; !ok {
			return nil, menuitem.ErrMenuItemNotFound
		}
		d.menu[m.ID] = m

		return nil, nil
	})
}

func (r *MenuItemRepository) Delete(_ context.Context, id string) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		if _, ok := d.menu[id]; !ok {
			return nil, menuitem.ErrMenuItemNotFound
		}
		delete(d.menu, id)

		return nil, nil
	})
}
