package middleware

// identity.go derives a caller identifier for rate-limit keys without doing
// any authentication: handlers still validate the key themselves.

import (
    "crypto/sha256"
    "encoding/hex"

    "github.com/labstack/echo/v4"
)

// callerID returns a short, non-reversible tag for the API key in the query
// string, the Basic auth username for admin routes, or "anon".
func callerID(c echo.Context) string {
    if key := c.QueryParam("api_key"); key != "" {
        sum := sha256.Sum256([]byte(key))
        return "key-" + hex.EncodeToString(sum[:])[:16]
    }
    if user, _, ok := c.Request().BasicAuth(); ok && user != "" {
        return "admin-" + user
    }
    return "anon"
}
