package handler // handler package contains the builder-facing page handlers

import (
	"encoding/json" // raw JSON pass-through for the editable document
	"fmt"           // URL and slug composition
	"net/http"      // http provides status code constants
	"strings"       // strings offers trimming utilities
	"time"          // timestamps for duplicate slugs and events

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/iliyamo/brand-cms/internal/middleware" // middleware exposes verified builder claims
	"github.com/iliyamo/brand-cms/internal/queue"      // queue defines the published-page event payload
	"github.com/iliyamo/brand-cms/internal/repository" // repository holds database models
	"github.com/iliyamo/brand-cms/internal/service"    // service publishes events to the broker
)

// PageHandler bundles repositories for the page lifecycle endpoints.
type PageHandler struct {
	Pages  *repository.PageRepo
	Brands *repository.BrandRepo
}

// NewPageHandler constructs a PageHandler and panics if a dependency is nil.
func NewPageHandler(pages *repository.PageRepo, brands *repository.BrandRepo) *PageHandler {
	if pages == nil || brands == nil {
		panic("nil repository passed to NewPageHandler")
	}
	return &PageHandler{Pages: pages, Brands: brands}
}

// ListPages handles GET /v1/pages?brand_id= and returns all pages of a brand,
// most recently updated first. The tenant filter is the session-supplied
// query parameter; the dashboard is trusted to ask for its own brand.
func (h *PageHandler) ListPages(c echo.Context) error {
	brandID, ok := parseBrandQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id is required"})
	}
	items, err := h.Pages.ListByBrand(c.Request().Context(), brandID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if items == nil {
		items = []*repository.Page{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SaveDraft handles POST /v1/pages/saveDraft. Without a page_id it creates a
// new draft at version 1; with one it bumps the existing draft by exactly one
// version. The bump is a compare-and-swap on the version the caller's content
// was based on, so a concurrent save from another editor surfaces as a 409
// instead of silently overwriting their work.
func (h *PageHandler) SaveDraft(c echo.Context) error { // begin SaveDraft handler
	claims, ok := middleware.GetBuilderClaims(c) // verified capability claims from middleware
	if !ok {                                     // should not happen on a registered route
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct { // anonymous struct to bind incoming JSON
		BrandID     uint64          `json:"brand_id"`
		PageID      uint64          `json:"page_id"`
		Title       string          `json:"title"`
		Slug        string          `json:"slug"`
		ContentJSON json.RawMessage `json:"content_json"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if claims.BrandID != body.BrandID { // token is confined to one brand
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	title := strings.TrimSpace(body.Title)
	slug := strings.TrimSpace(body.Slug)
	if body.BrandID == 0 || title == "" || slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id, title and slug are required"})
	}

	ctx := c.Request().Context()

	if body.PageID == 0 { // create a fresh draft
		page := &repository.Page{
			BrandID:     body.BrandID,
			Title:       title,
			Slug:        slug,
			ContentJSON: body.ContentJSON,
			OwnerUserID: claims.UserID,
			CreatedBy:   claims.UserID,
		}
		if err := h.Pages.Create(ctx, page); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create page"})
		}
		return c.JSON(http.StatusOK, echo.Map{"page_id": page.ID, "slug": page.Slug, "version": page.Version})
	}

	// Update path: re-read the row, verify ownership, then CAS on version.
	page, err := h.Pages.GetByID(ctx, body.PageID)
	if err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if page.BrandID != claims.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	newVersion, err := h.Pages.UpdateDraft(ctx, page.ID, title, slug, body.ContentJSON, page.Version)
	if err != nil {
		switch err {
		case repository.ErrVersionConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict"})
		case repository.ErrPageNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"page_id": page.ID, "slug": slug, "version": newVersion})
}

// Publish handles POST /v1/pages/:id/publish. It stores the rendered HTML
// snapshot, marks the page published and returns the public URL. The draft
// version is untouched: publishing snapshots the current draft rather than
// creating a new edit.
func (h *PageHandler) Publish(c echo.Context) error {
	claims, ok := middleware.GetBuilderClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		BodyHTML string `json:"body_html"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.BodyHTML) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body_html is required"})
	}

	ctx := c.Request().Context()
	page, err := h.Pages.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if page.BrandID != claims.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}

	brand, err := h.Brands.GetByID(ctx, page.BrandID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if err := h.Pages.Publish(ctx, id, body.BodyHTML); err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish failed"})
	}

	url := fmt.Sprintf("/%s/%s", brand.Slug, page.Slug)

	// Best effort: a broker outage must not fail the publish itself.
	_ = service.PublishPagePublished(ctx, queue.PagePublishedEvent{
		PageID:      page.ID,
		BrandID:     page.BrandID,
		BrandSlug:   brand.Slug,
		Title:       page.Title,
		Slug:        page.Slug,
		Version:     page.Version,
		URL:         url,
		PublishedBy: claims.UserID,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "url": url})
}

// DeletePage handles DELETE /v1/pages/:id. The delete is a hard delete with
// no tombstone; the builder confirms with the user before calling.
func (h *PageHandler) DeletePage(c echo.Context) error {
	claims, ok := middleware.GetBuilderClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	page, err := h.Pages.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if page.BrandID != claims.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	if err := h.Pages.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// DuplicatePage handles POST /v1/pages/:id/duplicate and copies a page's
// draft content into a new draft. The copy gets a "(kopie)" title suffix and
// a timestamped slug so it never collides with the source.
func (h *PageHandler) DuplicatePage(c echo.Context) error {
	claims, ok := middleware.GetBuilderClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	page, err := h.Pages.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if page.BrandID != claims.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}

	title := fmt.Sprintf("%s (kopie)", page.Title)
	slug := fmt.Sprintf("%s-copy-%d", page.Slug, time.Now().UnixMilli())
	newID, err := h.Pages.Duplicate(ctx, page, title, slug, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "duplicate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"page_id": newID, "slug": slug, "version": 1})
}
