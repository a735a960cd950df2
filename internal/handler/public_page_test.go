package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/repository"
)

func newPreviewApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewPublicHandler(repository.NewPageRepo(db), repository.NewBrandRepo(db))
	e := echo.New()
	e.GET("/v1/preview/:brandSlug/:pageSlug", h.PreviewPage)
	return e, mock
}

func TestPreviewServesPublishedSnapshot(t *testing.T) {
	e, mock := newPreviewApp(t)
	published := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, slug FROM brands WHERE slug = ?")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).AddRow(5, "Acme", "acme"))
	mock.ExpectQuery("SELECT .+ FROM pages WHERE brand_id = \\? AND slug = \\? AND status = \\?").
		WithArgs(uint64(5), "home", repository.PageStatusPublished).
		WillReturnRows(mockPageRow(&repository.Page{
			ID: 11, BrandID: 5, Title: "Home", Slug: "home",
			Status: repository.PageStatusPublished, Version: 7,
			ContentJSON: json.RawMessage(`{"secret":"draft state"}`),
			BodyHTML:    "<h1>Welcome to Acme</h1>",
			UpdatedAt:   time.Now(), PublishedAt: &published,
		}))

	req := httptest.NewRequest(http.MethodGet, "/v1/preview/acme/home", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "<h1>Welcome to Acme</h1>" {
		t.Errorf("body = %q", got)
	}
	// The editable document must never leak onto the public path.
	if strings.Contains(rec.Body.String(), "draft state") {
		t.Error("content_json leaked into the preview response")
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
		t.Errorf("content type = %q", ct)
	}
}

func TestPreviewHidesDraftsAndUnknowns(t *testing.T) {
	e, mock := newPreviewApp(t)

	// Unknown brand.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, slug FROM brands WHERE slug = ?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	req := httptest.NewRequest(http.MethodGet, "/v1/preview/ghost/home", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown brand: status = %d, want 404", rec.Code)
	}

	// Known brand, page exists only as a draft: same 404 from outside.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, slug FROM brands WHERE slug = ?")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).AddRow(5, "Acme", "acme"))
	mock.ExpectQuery("SELECT .+ FROM pages WHERE brand_id = \\? AND slug = \\? AND status = \\?").
		WithArgs(uint64(5), "wip", repository.PageStatusPublished).
		WillReturnError(sql.ErrNoRows)
	req = httptest.NewRequest(http.MethodGet, "/v1/preview/acme/wip", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft page: status = %d, want 404", rec.Code)
	}
}
