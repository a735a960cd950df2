// This file defines the Page model and repository methods for the draft ->
// publish lifecycle. A page always belongs to exactly one brand. Drafts carry
// a monotonically increasing version that is bumped on every save; publishing
// freezes the current draft's rendered HTML without touching the version.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Page represents a page row. BodyHTML and PublishedAt are only set once the
// page has been published; both are always set together.
type Page struct {
	ID          uint64          `json:"id"`
	BrandID     uint64          `json:"brand_id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Status      string          `json:"status"` // draft | review | published
	Version     int             `json:"version"`
	ContentJSON json.RawMessage `json:"content_json,omitempty"`
	BodyHTML    string          `json:"body_html,omitempty"`
	OwnerUserID uint64          `json:"owner_user_id"`
	CreatedBy   uint64          `json:"created_by"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PublishedAt *time.Time      `json:"published_at"`
}

// Page status values.
const (
	PageStatusDraft     = "draft"
	PageStatusReview    = "review"
	PageStatusPublished = "published"
)

// ErrPageNotFound is returned when a page cannot be found in the DB.
var ErrPageNotFound = errors.New("page not found")

// PageRepo encapsulates all database queries related to pages.
type PageRepo struct {
	db *sql.DB
}

// NewPageRepo constructs a PageRepo with the provided DB handle.
func NewPageRepo(db *sql.DB) *PageRepo {
	return &PageRepo{db: db}
}

const pageColumns = "id, brand_id, title, slug, status, version, content_json, body_html, owner_user_id, created_by, updated_at, published_at"

// scanPage reads one page row, normalizing the nullable columns.
func scanPage(row interface{ Scan(...any) error }) (*Page, error) {
	var (
		p       Page
		content sql.NullString
		body    sql.NullString
		pubAt   sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.BrandID, &p.Title, &p.Slug, &p.Status, &p.Version,
		&content, &body, &p.OwnerUserID, &p.CreatedBy, &p.UpdatedAt, &pubAt); err != nil {
		return nil, err
	}
	if content.Valid {
		p.ContentJSON = json.RawMessage(content.String)
	}
	if body.Valid {
		p.BodyHTML = body.String
	}
	if pubAt.Valid {
		t := pubAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

// Create inserts a new draft with version 1. On success the page's ID,
// Version and Status fields are populated.
func (r *PageRepo) Create(ctx context.Context, p *Page) error {
	const q = `INSERT INTO pages (brand_id, title, slug, status, version, content_json, owner_user_id, created_by)
	           VALUES (?, ?, ?, ?, 1, ?, ?, ?)`
	var content interface{}
	if len(p.ContentJSON) > 0 {
		content = string(p.ContentJSON)
	}
	res, err := r.db.ExecContext(ctx, q, p.BrandID, p.Title, p.Slug, PageStatusDraft, content, p.OwnerUserID, p.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Version = 1
	p.Status = PageStatusDraft
	return nil
}

// GetByID fetches a page by its ID regardless of brand. Handlers compare the
// returned BrandID against the token claims before mutating anything.
func (r *PageRepo) GetByID(ctx context.Context, id uint64) (*Page, error) {
	q := fmt.Sprintf("SELECT %s FROM pages WHERE id = ?", pageColumns)
	p, err := scanPage(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByBrand returns all pages for a brand, most recently updated first.
// body_html is included: the listing is only reachable through the
// authenticated dashboard session, not the public preview path.
func (r *PageRepo) ListByBrand(ctx context.Context, brandID uint64) ([]*Page, error) {
	q := fmt.Sprintf("SELECT %s FROM pages WHERE brand_id = ? ORDER BY updated_at DESC", pageColumns)
	rows, err := r.db.QueryContext(ctx, q, brandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDraft bumps a page to prevVersion+1 with new title/slug/content. The
// version column doubles as the optimistic lock: the UPDATE only matches when
// the row still carries prevVersion, so two editors racing from the same base
// cannot both win. The loser gets ErrVersionConflict (or ErrPageNotFound when
// the row vanished entirely) and must reload before retrying.
func (r *PageRepo) UpdateDraft(ctx context.Context, id uint64, title, slug string, content json.RawMessage, prevVersion int) (int, error) {
	const q = `UPDATE pages
	           SET title = ?, slug = ?, content_json = ?, version = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND version = ?`
	var contentArg interface{}
	if len(content) > 0 {
		contentArg = string(content)
	}
	newVersion := prevVersion + 1
	res, err := r.db.ExecContext(ctx, q, title, slug, contentArg, newVersion, id, prevVersion)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a lost race from a deleted page.
		var exists uint64
		err := r.db.QueryRowContext(ctx, "SELECT id FROM pages WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPageNotFound
		}
		if err != nil {
			return 0, err
		}
		return 0, ErrVersionConflict
	}
	return newVersion, nil
}

// Publish freezes the current draft as the publicly servable version: status
// becomes published, the rendered snapshot is stored and published_at is set.
// The version is deliberately not bumped; publishing is a snapshot of the
// current draft, not a new edit.
func (r *PageRepo) Publish(ctx context.Context, id uint64, bodyHTML string) error {
	const q = `UPDATE pages
	           SET status = ?, body_html = ?, published_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, PageStatusPublished, bodyHTML, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPageNotFound
	}
	return nil
}

// Delete hard-deletes a page. There is no soft-delete or tombstone; a
// deleted page is gone.
func (r *PageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPageNotFound
	}
	return nil
}

// Duplicate copies a page's draft content into a new draft row with version 1
// and returns the new page's ID. The copy never inherits published state.
func (r *PageRepo) Duplicate(ctx context.Context, src *Page, title, slug string, createdBy uint64) (uint64, error) {
	const q = `INSERT INTO pages (brand_id, title, slug, status, version, content_json, owner_user_id, created_by)
	           VALUES (?, ?, ?, ?, 1, ?, ?, ?)`
	var content interface{}
	if len(src.ContentJSON) > 0 {
		content = string(src.ContentJSON)
	}
	res, err := r.db.ExecContext(ctx, q, src.BrandID, title, slug, PageStatusDraft, content, src.OwnerUserID, createdBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetPublished fetches the published page for a brand by slug. Draft and
// review pages are invisible here; this backs the public preview path.
func (r *PageRepo) GetPublished(ctx context.Context, brandID uint64, slug string) (*Page, error) {
	q := fmt.Sprintf("SELECT %s FROM pages WHERE brand_id = ? AND slug = ? AND status = ?", pageColumns)
	p, err := scanPage(r.db.QueryRowContext(ctx, q, brandID, slug, PageStatusPublished))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return p, nil
}
