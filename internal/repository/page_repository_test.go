package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newPageRepo(t *testing.T) (*PageRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPageRepo(db), mock
}

func pageRows(t *testing.T, pages ...*Page) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "brand_id", "title", "slug", "status", "version",
		"content_json", "body_html", "owner_user_id", "created_by", "updated_at", "published_at",
	})
	for _, p := range pages {
		var pubAt interface{}
		if p.PublishedAt != nil {
			pubAt = *p.PublishedAt
		}
		rows.AddRow(p.ID, p.BrandID, p.Title, p.Slug, p.Status, p.Version,
			string(p.ContentJSON), p.BodyHTML, p.OwnerUserID, p.CreatedBy, p.UpdatedAt, pubAt)
	}
	return rows
}

func TestCreateStartsAtVersionOne(t *testing.T) {
	repo, mock := newPageRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pages")).
		WithArgs(uint64(5), "Home", "home", PageStatusDraft, `{"blocks":[]}`, uint64(9), uint64(9)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	p := &Page{
		BrandID:     5,
		Title:       "Home",
		Slug:        "home",
		ContentJSON: json.RawMessage(`{"blocks":[]}`),
		OwnerUserID: 9,
		CreatedBy:   9,
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != 11 {
		t.Errorf("ID = %d, want 11", p.ID)
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if p.Status != PageStatusDraft {
		t.Errorf("Status = %q, want draft", p.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateDraftBumpsVersionByOne(t *testing.T) {
	repo, mock := newPageRepo(t)
	// The WHERE clause pins the previous version: this is the CAS.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pages")).
		WithArgs("Home v2", "home", `{"v":2}`, 4, uint64(11), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v, err := repo.UpdateDraft(context.Background(), 11, "Home v2", "home", json.RawMessage(`{"v":2}`), 3)
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if v != 4 {
		t.Errorf("new version = %d, want 4", v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateDraftVersionConflict(t *testing.T) {
	repo, mock := newPageRepo(t)
	// Zero rows matched but the page still exists: another writer bumped the
	// version first, so the caller must get the conflict, not a silent win.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pages")).
		WithArgs("Home", "home", `{}`, 4, uint64(11), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM pages WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	_, err := repo.UpdateDraft(context.Background(), 11, "Home", "home", json.RawMessage(`{}`), 3)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateDraftPageGone(t *testing.T) {
	repo, mock := newPageRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pages")).
		WithArgs("Home", "home", `{}`, 2, uint64(12), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM pages WHERE id = ?")).
		WithArgs(uint64(12)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateDraft(context.Background(), 12, "Home", "home", json.RawMessage(`{}`), 1)
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound", err)
	}
}

func TestPublishStoresSnapshot(t *testing.T) {
	repo, mock := newPageRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pages")).
		WithArgs(PageStatusPublished, "<h1>Home</h1>", uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Publish(context.Background(), 11, "<h1>Home</h1>"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishUnknownPage(t *testing.T) {
	repo, mock := newPageRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pages")).
		WithArgs(PageStatusPublished, "<p>x</p>", uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Publish(context.Background(), 404, "<p>x</p>"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound", err)
	}
}

func TestListByBrandNewestFirst(t *testing.T) {
	repo, mock := newPageRepo(t)
	now := time.Now().UTC()
	published := now.Add(-time.Hour)
	rows := pageRows(t,
		&Page{ID: 2, BrandID: 5, Title: "About", Slug: "about", Status: PageStatusDraft, Version: 3, ContentJSON: json.RawMessage(`{}`), UpdatedAt: now},
		&Page{ID: 1, BrandID: 5, Title: "Home", Slug: "home", Status: PageStatusPublished, Version: 7, ContentJSON: json.RawMessage(`{}`), BodyHTML: "<h1>Home</h1>", UpdatedAt: now.Add(-2 * time.Hour), PublishedAt: &published},
	)
	mock.ExpectQuery("SELECT .+ FROM pages WHERE brand_id = \\? ORDER BY updated_at DESC").
		WithArgs(uint64(5)).
		WillReturnRows(rows)

	out, err := repo.ListByBrand(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListByBrand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != 2 || out[1].ID != 1 {
		t.Errorf("order = [%d %d], want [2 1]", out[0].ID, out[1].ID)
	}
	// The published/snapshot invariant: body_html and published_at are
	// either both present or both absent.
	for _, p := range out {
		isPub := p.Status == PageStatusPublished
		if isPub != (p.BodyHTML != "") || isPub != (p.PublishedAt != nil) {
			t.Errorf("page %d violates the publish invariant: status=%q body=%q published_at=%v",
				p.ID, p.Status, p.BodyHTML, p.PublishedAt)
		}
	}
}

func TestGetPublishedIgnoresDrafts(t *testing.T) {
	repo, mock := newPageRepo(t)
	mock.ExpectQuery("SELECT .+ FROM pages WHERE brand_id = \\? AND slug = \\? AND status = \\?").
		WithArgs(uint64(5), "home", PageStatusPublished).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetPublished(context.Background(), 5, "home"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("err = %v, want ErrPageNotFound", err)
	}
}
