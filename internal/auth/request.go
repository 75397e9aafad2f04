package auth

import (
	"net/http"
	"strings"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// TokenFromRequest extracts the bearer token from the Authorization header, falling back to the token cookie.
// The scheme is matched case-insensitively. An empty string means no token was presented.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
