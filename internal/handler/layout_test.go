package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/middleware"
	"github.com/iliyamo/brand-cms/internal/repository"
)

func newLayoutApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewLayoutHandler(repository.NewLayoutRepo(db))
	e := echo.New()
	writes := e.Group("/v1")
	writes.Use(middleware.BuilderAuth(testBuilderSecret))
	writes.POST("/layouts/save", h.SaveLayout, middleware.RequireScope("layouts:write"))
	return e, mock
}

func TestSaveLayoutRejectsUnknownType(t *testing.T) {
	e, mock := newLayoutApp(t)
	// "sidebar" is not a layout the renderer knows; the row must never be
	// written.
	rec := doJSON(e, http.MethodPost, "/v1/layouts/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id": 5,
		"type":     "sidebar",
		"name":     "Left nav",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body = %s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "type must be 'header' or 'footer'" {
		t.Errorf("error = %v", body["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveLayoutCreatesHeader(t *testing.T) {
	e, mock := newLayoutApp(t)
	mock.ExpectExec("INSERT INTO layouts").
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec := doJSON(e, http.MethodPost, "/v1/layouts/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id":     5,
		"type":         "header",
		"name":         "Main header",
		"content_json": map[string]any{"logo": "/logo.svg"},
		"is_default":   true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["layout_id"] != float64(7) {
		t.Errorf("layout_id = %v, want 7", body["layout_id"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveLayoutUpdateChecksBrand(t *testing.T) {
	e, mock := newLayoutApp(t)
	mock.ExpectQuery("SELECT .+ FROM layouts WHERE id = \\?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "brand_id", "type", "name", "content_json", "is_default"}).
			AddRow(7, 6, repository.LayoutTypeHeader, "Main header", `{}`, false))

	// Token for brand 5 may not update brand 6's layout, even though brand 5
	// is what the payload claims.
	rec := doJSON(e, http.MethodPost, "/v1/layouts/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id":  5,
		"layout_id": 7,
		"type":      "header",
		"name":      "Hijacked",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body = %s)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveLayoutUpdatesExisting(t *testing.T) {
	e, mock := newLayoutApp(t)
	mock.ExpectQuery("SELECT .+ FROM layouts WHERE id = \\?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "brand_id", "type", "name", "content_json", "is_default"}).
			AddRow(7, 5, repository.LayoutTypeFooter, "Footer", `{}`, false))
	mock.ExpectExec("UPDATE layouts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, http.MethodPost, "/v1/layouts/save", mintBuilderToken(t, 5, 9), map[string]any{
		"brand_id":     5,
		"layout_id":    7,
		"type":         "footer",
		"name":         "Footer v2",
		"content_json": json.RawMessage(`{"links":[]}`),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["layout_id"] != float64(7) {
		t.Errorf("layout_id = %v, want 7", body["layout_id"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
