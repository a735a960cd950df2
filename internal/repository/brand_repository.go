// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Brand model and lookup methods. A Brand is the tenant
// unit of the system: every page, layout and menu row carries a brand_id and
// is visible only to callers scoped to that brand.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Brand represents a tenant persisted in the database. The Slug is used to
// compose public page URLs of the form /{brand_slug}/{page_slug}.
type Brand struct {
	ID   uint64 // ID is the unique identifier of the brand
	Name string // Name is the human-friendly brand name
	Slug string // Slug is the URL-safe identifier used in public page URLs
}

// ErrBrandNotFound is returned when a brand cannot be found in the DB.
var ErrBrandNotFound = errors.New("brand not found")

// BrandRepo encapsulates all database queries related to brands.
type BrandRepo struct {
	db *sql.DB
}

// NewBrandRepo constructs a BrandRepo with the provided DB handle.
func NewBrandRepo(db *sql.DB) *BrandRepo {
	return &BrandRepo{db: db}
}

// GetByID fetches a brand by its ID. It returns ErrBrandNotFound if no row
// is found.
func (r *BrandRepo) GetByID(ctx context.Context, id uint64) (*Brand, error) {
	const q = "SELECT id, name, slug FROM brands WHERE id = ?"
	var b Brand
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetBySlug fetches a brand by its public slug. Used by the preview endpoint
// to resolve /{brand_slug}/{page_slug} URLs.
func (r *BrandRepo) GetBySlug(ctx context.Context, slug string) (*Brand, error) {
	const q = "SELECT id, name, slug FROM brands WHERE slug = ?"
	var b Brand
	if err := r.db.QueryRowContext(ctx, q, slug).Scan(&b.ID, &b.Name, &b.Slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	return &b, nil
}
