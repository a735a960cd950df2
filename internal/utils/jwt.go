package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding functions
	"errors"        // sentinel errors for token verification outcomes
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when the dashboard calls protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA-256 hash of the
// raw string is stored for security reasons.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a dashboard user.  It takes
// the signing secret, the user ID, the user's role, and a TTL in minutes.  The
// JWT includes standard claims: subject (sub), role, expiration (exp) and
// issued at (iat).
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are used to obtain new access tokens.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash in the database prevents attackers from
// using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// BuilderScopes is the fixed scope set granted to every capability token.
// The external builder always gets full read/write on the three content
// resources of its brand; there is no per-resource granularity.
var BuilderScopes = []string{
	"pages:read", "pages:write",
	"layouts:read", "layouts:write",
	"menus:read", "menus:write",
}

// BuilderClaims are the trusted claims carried by a capability token.  A
// token is scoped to exactly one brand; every write endpoint compares
// BrandID against the target row before mutating anything.
type BuilderClaims struct {
	BrandID  uint64    // the brand this token is confined to
	UserID   uint64    // the dashboard user the token was minted for (sub)
	Scopes   []string  // granted scopes, e.g. "pages:write"
	IssuedAt time.Time // iat
	Expires  time.Time // exp
}

// HasScope reports whether the token grants the given scope.
func (bc BuilderClaims) HasScope(scope string) bool {
	for _, s := range bc.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verification failure sentinels.  ErrTokenExpired is distinguished from
// ErrTokenInvalid because expiry is a normal client-visible condition that
// calls for a fresh mint, not a sign of tampering.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// NewBuilderToken mints a signed capability token for the external visual
// builder.  Claims follow the builder's established shape: brand_id, sub,
// scope (array), iat and exp.  The token is stateless, nothing is persisted
// and it cannot be revoked before expiry.
func NewBuilderToken(secret string, brandID, userID uint64, ttlHours int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"brand_id": brandID,
		"sub":      userID,
		"scope":    BuilderScopes,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseBuilderToken validates a capability token's signature and expiry and
// returns the trusted claims.  Any structural or signature problem yields
// ErrTokenInvalid; a well-signed but stale token yields ErrTokenExpired.
func ParseBuilderToken(secret, raw string) (BuilderClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is acceptable; reject alg-substitution attempts.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return BuilderClaims{}, ErrTokenExpired
		}
		return BuilderClaims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return BuilderClaims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return BuilderClaims{}, ErrTokenInvalid
	}

	bc := BuilderClaims{}
	if bc.BrandID, ok = claimUint64(mc["brand_id"]); !ok {
		return BuilderClaims{}, ErrTokenInvalid
	}
	if bc.UserID, ok = claimUint64(mc["sub"]); !ok {
		return BuilderClaims{}, ErrTokenInvalid
	}
	if scopes, ok := mc["scope"].([]interface{}); ok {
		for _, s := range scopes {
			if str, ok := s.(string); ok {
				bc.Scopes = append(bc.Scopes, str)
			}
		}
	}
	if iat, ok := claimUint64(mc["iat"]); ok {
		bc.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claimUint64(mc["exp"]); ok {
		bc.Expires = time.Unix(int64(exp), 0).UTC()
	}
	return bc, nil
}

// claimUint64 converts a decoded JSON claim into uint64.  Numeric claims come
// back from the JWT library as float64; string ids are tolerated too.
func claimUint64(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	case uint64:
		return t, true
	case int64:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	}
	return 0, false
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  It is used to produce refresh
// tokens.  If the random number generator fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
