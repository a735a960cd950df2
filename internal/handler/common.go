package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the session user_id from echo.Context and converts it
// to uint64. The session middleware stores the raw JWT claim, which the JSON
// decoder surfaces as float64; older tokens may carry strings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter. The second return is false for
// empty or non-numeric values.
func parseID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// parseBrandQuery reads the brand_id query parameter used by the dashboard
// list endpoints. The listing surface trusts this session-supplied filter
// rather than a capability token; only the write surface cross-checks claims.
func parseBrandQuery(c echo.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.QueryParam("brand_id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
