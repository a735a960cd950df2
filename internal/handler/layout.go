package handler // handler package contains the layout (header/footer) handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/middleware"
	"github.com/iliyamo/brand-cms/internal/repository"
)

// LayoutHandler bundles the layout repository for the layout endpoints.
type LayoutHandler struct {
	Layouts *repository.LayoutRepo
}

// NewLayoutHandler constructs a LayoutHandler and panics if the repo is nil.
func NewLayoutHandler(layouts *repository.LayoutRepo) *LayoutHandler {
	if layouts == nil {
		panic("nil repository passed to NewLayoutHandler")
	}
	return &LayoutHandler{Layouts: layouts}
}

// ListLayouts handles GET /v1/layouts?brand_id=&type=. The type filter is
// lenient: values other than header/footer are ignored and the full set is
// returned, mirroring how consumers have always called this endpoint.
func (h *LayoutHandler) ListLayouts(c echo.Context) error {
	brandID, ok := parseBrandQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id is required"})
	}
	items, err := h.Layouts.ListByBrand(c.Request().Context(), brandID, strings.TrimSpace(c.QueryParam("type")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if items == nil {
		items = []*repository.Layout{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SaveLayout handles POST /v1/layouts/save, upserting a header or footer
// template. Unlike pages there is no versioning: a save overwrites. The
// is_default flag is stored as sent; exclusivity of defaults per (brand,
// type) is the dashboard's concern.
func (h *LayoutHandler) SaveLayout(c echo.Context) error { // begin SaveLayout handler
	claims, ok := middleware.GetBuilderClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct { // anonymous struct to bind incoming JSON
		BrandID     uint64          `json:"brand_id"`
		LayoutID    uint64          `json:"layout_id"`
		Type        string          `json:"type"`
		Name        string          `json:"name"`
		ContentJSON json.RawMessage `json:"content_json"`
		IsDefault   bool            `json:"is_default"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if claims.BrandID != body.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	name := strings.TrimSpace(body.Name)
	ltype := strings.TrimSpace(body.Type)
	if body.BrandID == 0 || ltype == "" || name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id, type and name are required"})
	}
	if ltype != repository.LayoutTypeHeader && ltype != repository.LayoutTypeFooter {
		// Strict on writes, unlike the read filter: a row with an unknown
		// type would be invisible to every consumer.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be 'header' or 'footer'"})
	}

	ctx := c.Request().Context()

	if body.LayoutID == 0 { // create
		layout := &repository.Layout{
			BrandID:     body.BrandID,
			Type:        ltype,
			Name:        name,
			ContentJSON: body.ContentJSON,
			IsDefault:   body.IsDefault,
		}
		if err := h.Layouts.Create(ctx, layout); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create layout"})
		}
		return c.JSON(http.StatusOK, echo.Map{"layout_id": layout.ID})
	}

	// Update path: verify the layout exists and belongs to the token's brand.
	layout, err := h.Layouts.GetByID(ctx, body.LayoutID)
	if err != nil {
		if err == repository.ErrLayoutNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if layout.BrandID != claims.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	if err := h.Layouts.Update(ctx, layout.ID, name, body.ContentJSON, body.IsDefault); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"layout_id": layout.ID})
}
