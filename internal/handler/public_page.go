package handler

// public_page.go serves the published snapshot of a page to anonymous
// visitors. Only the frozen body_html of a published page is ever exposed
// here; drafts, review pages and the editable content_json are invisible on
// this path. The route sits behind the Redis response cache, so repeated
// hits on a popular page rarely reach the database.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/repository"
)

// PublicHandler bundles repositories for the unauthenticated preview surface.
type PublicHandler struct {
	Pages  *repository.PageRepo
	Brands *repository.BrandRepo
}

// NewPublicHandler constructs a PublicHandler and panics if a dependency is nil.
func NewPublicHandler(pages *repository.PageRepo, brands *repository.BrandRepo) *PublicHandler {
	if pages == nil || brands == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Pages: pages, Brands: brands}
}

// PreviewPage handles GET /v1/preview/:brandSlug/:pageSlug and serves the
// published HTML snapshot. Unknown brands, unknown slugs and unpublished
// pages all look identical from outside: 404.
func (h *PublicHandler) PreviewPage(c echo.Context) error {
	brandSlug := c.Param("brandSlug")
	pageSlug := c.Param("pageSlug")
	if brandSlug == "" || pageSlug == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx := c.Request().Context()
	brand, err := h.Brands.GetBySlug(ctx, brandSlug)
	if err != nil {
		if err == repository.ErrBrandNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	page, err := h.Pages.GetPublished(ctx, brand.ID, pageSlug)
	if err != nil {
		if err == repository.ErrPageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	return c.HTML(http.StatusOK, page.BodyHTML)
}
