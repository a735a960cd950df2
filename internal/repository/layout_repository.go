// This file defines the Layout model and repository methods. Layouts are the
// header/footer templates a brand reuses across its pages. Unlike pages they
// have no versioning and no publish lifecycle; a save simply overwrites.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// Layout represents a header or footer template owned by a brand. IsDefault
// marks the layout consumers should pick when a page names none; the store
// does not enforce that only one default exists per (brand, type); keeping
// that meaningful is the caller's responsibility.
type Layout struct {
	ID          uint64          `json:"id"`
	BrandID     uint64          `json:"brand_id"`
	Type        string          `json:"type"` // header | footer
	Name        string          `json:"name"`
	ContentJSON json.RawMessage `json:"content_json,omitempty"`
	IsDefault   bool            `json:"is_default"`
}

// Layout type values.
const (
	LayoutTypeHeader = "header"
	LayoutTypeFooter = "footer"
)

// ErrLayoutNotFound is returned when a layout cannot be found in the DB.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutRepo encapsulates all database queries related to layouts.
type LayoutRepo struct {
	db *sql.DB
}

// NewLayoutRepo constructs a LayoutRepo with the provided DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo {
	return &LayoutRepo{db: db}
}

// scanLayout reads one layout row, normalizing the nullable content column.
func scanLayout(row interface{ Scan(...any) error }) (*Layout, error) {
	var (
		l       Layout
		content sql.NullString
	)
	if err := row.Scan(&l.ID, &l.BrandID, &l.Type, &l.Name, &content, &l.IsDefault); err != nil {
		return nil, err
	}
	if content.Valid {
		l.ContentJSON = json.RawMessage(content.String)
	}
	return &l, nil
}

// ListByBrand returns a brand's layouts, newest first. typeFilter narrows the
// result to "header" or "footer"; any other value (including empty) applies
// no filter; invalid filters are ignored rather than rejected, matching the
// list endpoint's lenient contract.
func (r *LayoutRepo) ListByBrand(ctx context.Context, brandID uint64, typeFilter string) ([]*Layout, error) {
	q := "SELECT id, brand_id, type, name, content_json, is_default FROM layouts WHERE brand_id = ?"
	args := []any{brandID}
	if typeFilter == LayoutTypeHeader || typeFilter == LayoutTypeFooter {
		q += " AND type = ?"
		args = append(args, typeFilter)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Layout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a layout by its ID regardless of brand. Handlers compare
// the returned BrandID against the token claims before mutating anything.
func (r *LayoutRepo) GetByID(ctx context.Context, id uint64) (*Layout, error) {
	const q = "SELECT id, brand_id, type, name, content_json, is_default FROM layouts WHERE id = ?"
	l, err := scanLayout(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, err
	}
	return l, nil
}

// Create inserts a new layout and populates its ID.
func (r *LayoutRepo) Create(ctx context.Context, l *Layout) error {
	const q = `INSERT INTO layouts (brand_id, type, name, content_json, is_default)
	           VALUES (?, ?, ?, ?, ?)`
	var content interface{}
	if len(l.ContentJSON) > 0 {
		content = string(l.ContentJSON)
	}
	res, err := r.db.ExecContext(ctx, q, l.BrandID, l.Type, l.Name, content, l.IsDefault)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// Update overwrites an existing layout's name, content and default flag.
// Type and brand are immutable after creation.
func (r *LayoutRepo) Update(ctx context.Context, id uint64, name string, content json.RawMessage, isDefault bool) error {
	const q = `UPDATE layouts
	           SET name = ?, content_json = ?, is_default = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	var contentArg interface{}
	if len(content) > 0 {
		contentArg = string(content)
	}
	res, err := r.db.ExecContext(ctx, q, name, contentArg, isDefault, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLayoutNotFound
	}
	return nil
}
