package handler

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/config"
	"github.com/iliyamo/brand-cms/internal/middleware"
	"github.com/iliyamo/brand-cms/internal/repository"
	"github.com/iliyamo/brand-cms/internal/utils"
)

const testSessionSecret = "handler-test-session-secret"

// newAuthApp wires the token mint behind the session middleware, as in
// production: only a logged-in dashboard user may mint capability tokens.
func newAuthApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		SessionSecret:   testSessionSecret,
		BuilderSecret:   testBuilderSecret,
		BuilderBaseURL:  "https://builder.example.com/editor",
		AccessTTLMin:    15,
		RefreshTTLDays:  7,
		BuilderTTLHours: 24,
	}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewBrandRepo(db), repository.NewTokenRepo(db))
	e := echo.New()
	e.POST("/v1/auth/refresh-access", h.RefreshAccess)
	e.POST("/v1/auth/token", h.BuilderToken, middleware.SessionAuth(testSessionSecret))
	return e, mock
}

func mintSessionToken(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSessionSecret, userID, "EDITOR", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func userRow(id uint64, brandID any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "brand_id", "is_active", "created_at", "updated_at"}).
		AddRow(id, "editor@example.com", "x", "EDITOR", brandID, true, now, now)
}

func TestBuilderTokenMintedForBrandUser(t *testing.T) {
	e, mock := newAuthApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,brand_id,is_active,created_at,updated_at FROM users WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnRows(userRow(9, 5))

	rec := doJSON(e, http.MethodPost, "/v1/auth/token?page_id=11", mintSessionToken(t, 9), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["brand_id"] != float64(5) {
		t.Errorf("brand_id = %v, want 5", body["brand_id"])
	}

	// The minted token must verify against the builder secret and carry the
	// claims the write surface will later enforce.
	raw, _ := body["token"].(string)
	claims, err := utils.ParseBuilderToken(testBuilderSecret, raw)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.BrandID != 5 || claims.UserID != 9 {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.HasScope("pages:write") || !claims.HasScope("menus:read") {
		t.Errorf("scopes missing from minted token: %v", claims.Scopes)
	}

	// The deeplink embeds the token and the requested page.
	link, _ := body["deeplink"].(string)
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("deeplink does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("token") != raw {
		t.Error("deeplink token differs from minted token")
	}
	if q.Get("brand_id") != "5" || q.Get("page_id") != "11" {
		t.Errorf("deeplink query = %v", q)
	}
}

func TestBuilderTokenRequiresBrandAssignment(t *testing.T) {
	e, mock := newAuthApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,brand_id,is_active,created_at,updated_at FROM users WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnRows(userRow(9, nil))

	rec := doJSON(e, http.MethodPost, "/v1/auth/token", mintSessionToken(t, 9), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body = %s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "user has no brand assigned" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRefreshAccessKeepsRefreshToken(t *testing.T) {
	e, mock := newAuthApp(t)
	const raw = "a-refresh-token-the-client-already-holds"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?")).
		WithArgs(utils.HashRefreshRaw(raw)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(9, time.Now().Add(24*time.Hour), nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,brand_id,is_active,created_at,updated_at FROM users WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnRows(userRow(9, 5))

	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh-access", "", map[string]any{
		"refresh_token": raw,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	access, ok := body["access"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v, want a fresh access token", body)
	}
	if tokStr, _ := access["token"].(string); tokStr == "" {
		t.Fatalf("access part lacks a token: %v", access)
	}
	if _, rotated := body["refresh"]; rotated {
		t.Error("refresh token was rotated, want it reused as-is")
	}
	// No revoke and no new refresh row: the stored token stays valid.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRefreshAccessRejectsRevokedToken(t *testing.T) {
	e, mock := newAuthApp(t)
	const raw = "a-revoked-refresh-token"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?")).
		WithArgs(utils.HashRefreshRaw(raw)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(9, time.Now().Add(24*time.Hour), time.Now().Add(-time.Minute)))

	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh-access", "", map[string]any{
		"refresh_token": raw,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (body = %s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "invalid refresh" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestBuilderTokenRequiresSession(t *testing.T) {
	e, _ := newAuthApp(t)
	rec := doJSON(e, http.MethodPost, "/v1/auth/token", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBuilderTokenRejectsBuilderTokenAsSession(t *testing.T) {
	e, _ := newAuthApp(t)
	// A capability token signed with the builder secret is not a session.
	tok, err := utils.NewBuilderToken(testBuilderSecret, 5, 9, 1)
	if err != nil {
		t.Fatalf("NewBuilderToken: %v", err)
	}
	rec := doJSON(e, http.MethodPost, "/v1/auth/token", tok.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
