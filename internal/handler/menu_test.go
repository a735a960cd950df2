package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/middleware"
	"github.com/iliyamo/brand-cms/internal/repository"
)

func newMenuApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewMenuHandler(repository.NewMenuRepo(db))
	e := echo.New()
	writes := e.Group("/v1")
	writes.Use(middleware.BuilderAuth(testBuilderSecret))
	writes.POST("/menus/save", h.SaveMenu, middleware.RequireScope("menus:write"))
	return e, mock
}

func TestSaveMenuCreatesHeaderAndReplacesItems(t *testing.T) {
	e, mock := newMenuApp(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO menus")).
		WithArgs(uint64(5), "Main").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items WHERE menu_id = ?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO menu_items").
		WithArgs(uint64(3), nil, "Home", "/home", 0, "_self", nil).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO menu_items").
		WithArgs(uint64(3), nil, "Docs", "/docs", 1, "_blank", "book").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	rec := doJSON(e, http.MethodPost, "/v1/menus/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id": 5,
		"name":     "Main",
		"items": []map[string]any{
			{"label": "Home", "url": "/home"},
			{"label": "Docs", "url": "/docs", "order": 1, "target": "_blank", "icon": "book"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["menu_id"] != float64(3) {
		t.Errorf("menu_id = %v, want 3", body["menu_id"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveMenuWithoutItemsLeavesItemsAlone(t *testing.T) {
	e, mock := newMenuApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, brand_id, name FROM menus WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "brand_id", "name"}).AddRow(3, 5, "Main"))
	mock.ExpectExec("UPDATE menus SET name").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No DELETE, no transaction: omitting items only renames the header.

	rec := doJSON(e, http.MethodPost, "/v1/menus/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id": 5,
		"menu_id":  3,
		"name":     "Primary",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveMenuUpdateChecksBrand(t *testing.T) {
	e, mock := newMenuApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, brand_id, name FROM menus WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "brand_id", "name"}).AddRow(3, 6, "Other"))

	rec := doJSON(e, http.MethodPost, "/v1/menus/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id": 5,
		"menu_id":  3,
		"name":     "Hijacked",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body = %s)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveMenuRequiresName(t *testing.T) {
	e, mock := newMenuApp(t)
	rec := doJSON(e, http.MethodPost, "/v1/menus/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id": 5,
		"name":     "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
