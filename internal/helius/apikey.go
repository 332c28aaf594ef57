package helius

import (
	"net/url"
	"strings"
)

// ParseAPIKey accepts either a raw API key or a full Helius URL carrying an
// api-key query parameter and returns the key. Empty input yields "".
func ParseAPIKey(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if !strings.Contains(v, "api-key=") {
		return v
	}
	u, err := url.Parse(v)
	if err != nil {
		return ""
	}
	q := u.Query()
	key := q.Get("api-key")
	if key == "" {
		key = q.Get("api_key")
	}
	return strings.TrimSpace(key)
}

// withAPIKey appends the api-key query parameter to base.
func withAPIKey(base, apiKey string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?api-key=" + url.QueryEscape(apiKey)
	}
	q := u.Query()
	q.Set("api-key", apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}
