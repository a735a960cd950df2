package handler // handler package contains the navigation menu handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/middleware"
	"github.com/iliyamo/brand-cms/internal/repository"
)

// MenuHandler bundles the menu repository for the menu endpoints.
type MenuHandler struct {
	Menus *repository.MenuRepo
}

// NewMenuHandler constructs a MenuHandler and panics if the repo is nil.
func NewMenuHandler(menus *repository.MenuRepo) *MenuHandler {
	if menus == nil {
		panic("nil repository passed to NewMenuHandler")
	}
	return &MenuHandler{Menus: menus}
}

// ListMenus handles GET /v1/menus?brand_id= and returns menu headers only.
// Items are fetched per menu via MenuItems to keep the listing cheap.
func (h *MenuHandler) ListMenus(c echo.Context) error {
	brandID, ok := parseBrandQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id is required"})
	}
	items, err := h.Menus.ListByBrand(c.Request().Context(), brandID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if items == nil {
		items = []*repository.Menu{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MenuItems handles GET /v1/menus/:id/items and returns the menu's ordered
// item set, sorted by the order column ascending.
func (h *MenuHandler) MenuItems(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Menus.ListItems(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if items == nil {
		items = []*repository.MenuItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// menuItemReq is one item of a menu save payload.
type menuItemReq struct {
	ParentID *uint64 `json:"parent_id"`
	Label    string  `json:"label"`
	URL      string  `json:"url"`
	Order    int     `json:"order"`
	Target   string  `json:"target"`
	Icon     string  `json:"icon"`
}

// SaveMenu handles POST /v1/menus/save. The menu header is upserted; when a
// non-empty items array is sent, the stored item set is fully replaced with
// it in one transaction. An absent or empty items array leaves the existing
// items untouched; "no items field" is not "clear the menu". Callers who
// want an empty menu must send a placeholder set and clear it again, an
// asymmetry inherited from the builder's save contract.
func (h *MenuHandler) SaveMenu(c echo.Context) error { // begin SaveMenu handler
	claims, ok := middleware.GetBuilderClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct { // anonymous struct to bind incoming JSON
		BrandID uint64        `json:"brand_id"`
		MenuID  uint64        `json:"menu_id"`
		Name    string        `json:"name"`
		Items   []menuItemReq `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if claims.BrandID != body.BrandID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
	}
	name := strings.TrimSpace(body.Name)
	if body.BrandID == 0 || name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand_id and name are required"})
	}

	ctx := c.Request().Context()

	menuID := body.MenuID
	if menuID == 0 { // create a new menu header
		menu := &repository.Menu{BrandID: body.BrandID, Name: name}
		if err := h.Menus.Create(ctx, menu); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create menu"})
		}
		menuID = menu.ID
	} else { // rename an existing one, verifying brand ownership first
		menu, err := h.Menus.GetByID(ctx, menuID)
		if err != nil {
			if err == repository.ErrMenuNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "menu not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if menu.BrandID != claims.BrandID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "brand mismatch"})
		}
		if err := h.Menus.UpdateName(ctx, menuID, name); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	if len(body.Items) > 0 { // full replacement of the item set
		items := make([]*repository.MenuItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, &repository.MenuItem{
				ParentID: it.ParentID,
				Label:    it.Label,
				URL:      it.URL,
				Order:    it.Order,
				Target:   it.Target,
				Icon:     it.Icon,
			})
		}
		if err := h.Menus.ReplaceItems(ctx, menuID, items); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save items failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"menu_id": menuID})
}
