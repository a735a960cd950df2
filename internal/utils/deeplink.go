package utils

// deeplink.go composes the URL that opens the external visual builder with a
// freshly minted capability token.  The builder reads brand_id and token from
// the query string; when page_id is present it opens directly on that page,
// otherwise it starts on a blank new-page canvas.

import (
	"net/url"
	"strconv"
)

// BuilderDeeplink returns the builder URL for the given brand and token.
// pageID is optional; pass 0 to open the builder without a target page.
// The token is embedded as a query parameter, so deeplinks inherit the
// token's 24h lifetime and must be regenerated after expiry.
func BuilderDeeplink(baseURL string, brandID uint64, token string, pageID uint64) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		// A broken base URL is a configuration problem; still produce
		// something usable rather than an empty string.
		u = &url.URL{Path: baseURL}
	}
	q := u.Query()
	q.Set("brand_id", strconv.FormatUint(brandID, 10))
	q.Set("token", token)
	if pageID != 0 {
		q.Set("page_id", strconv.FormatUint(pageID, 10))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
