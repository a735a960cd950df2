// This file defines the Menu and MenuItem models and repository methods.
// A menu is a named container owned by a brand; its items form an ordered
// forest with at most one level of parent nesting. Saving items is a full
// replacement of the set, done inside a single transaction so a crash can
// never leave a menu half-replaced.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Menu represents a navigation menu header. Items are stored separately and
// fetched on demand to keep menu listings cheap.
type Menu struct {
	ID      uint64 `json:"id"`
	BrandID uint64 `json:"brand_id"`
	Name    string `json:"name"`
}

// MenuItem represents one entry of a menu. ParentID is nil for top-level
// items; a single level of nesting is supported (an item whose parent is
// itself nested is not rejected by the store, consumers flatten deeper
// levels). Order drives the display sequence, ascending.
type MenuItem struct {
	ID       uint64  `json:"id"`
	MenuID   uint64  `json:"menu_id"`
	ParentID *uint64 `json:"parent_id"`
	Label    string  `json:"label"`
	URL      string  `json:"url"`
	Order    int     `json:"order"`
	Target   string  `json:"target"`
	Icon     string  `json:"icon,omitempty"`
}

// ErrMenuNotFound is returned when a menu cannot be found in the DB.
var ErrMenuNotFound = errors.New("menu not found")

// MenuRepo encapsulates all database queries related to menus and their items.
type MenuRepo struct {
	db *sql.DB
}

// NewMenuRepo constructs a MenuRepo with the provided DB handle.
func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

// ListByBrand returns a brand's menu headers (no items), newest first.
func (r *MenuRepo) ListByBrand(ctx context.Context, brandID uint64) ([]*Menu, error) {
	const q = "SELECT id, brand_id, name FROM menus WHERE brand_id = ? ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, brandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Menu
	for rows.Next() {
		m := new(Menu)
		if err := rows.Scan(&m.ID, &m.BrandID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a menu header by its ID regardless of brand. Handlers
// compare the returned BrandID against the token claims before mutating.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*Menu, error) {
	const q = "SELECT id, brand_id, name FROM menus WHERE id = ?"
	var m Menu
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.BrandID, &m.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListItems returns a menu's items sorted by their order column ascending.
func (r *MenuRepo) ListItems(ctx context.Context, menuID uint64) ([]*MenuItem, error) {
	const q = "SELECT id, menu_id, parent_id, label, url, `order`, target, icon FROM menu_items WHERE menu_id = ? ORDER BY `order` ASC"
	rows, err := r.db.QueryContext(ctx, q, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MenuItem
	for rows.Next() {
		var (
			it     MenuItem
			parent sql.NullInt64
			icon   sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.MenuID, &parent, &it.Label, &it.URL, &it.Order, &it.Target, &icon); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := uint64(parent.Int64)
			it.ParentID = &p
		}
		if icon.Valid {
			it.Icon = icon.String
		}
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new menu header and populates its ID.
func (r *MenuRepo) Create(ctx context.Context, m *Menu) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO menus (brand_id, name) VALUES (?, ?)", m.BrandID, m.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// UpdateName renames an existing menu header.
func (r *MenuRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	const q = "UPDATE menus SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMenuNotFound
	}
	return nil
}

// ReplaceItems replaces a menu's full item set: delete everything, then
// insert the new rows, all inside one transaction. From the caller's side the
// swap is atomic: a crash mid-way rolls back to the previous set instead of
// leaving the menu empty. Callers must not invoke this with an empty slice;
// "no items sent" means "leave items alone" and is decided at the handler.
func (r *MenuRepo) ReplaceItems(ctx context.Context, menuID uint64, items []*MenuItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM menu_items WHERE menu_id = ?", menuID); err != nil {
		return err
	}
	const q = "INSERT INTO menu_items (menu_id, parent_id, label, url, `order`, target, icon) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, it := range items {
		var parent interface{}
		if it.ParentID != nil {
			parent = *it.ParentID
		}
		var icon interface{}
		if it.Icon != "" {
			icon = it.Icon
		}
		target := it.Target
		if target == "" {
			target = "_self"
		}
		if _, err = tx.ExecContext(ctx, q, menuID, parent, it.Label, it.URL, it.Order, target, icon); err != nil {
			return err
		}
	}
	return nil
}
