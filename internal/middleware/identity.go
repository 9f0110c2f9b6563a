package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id stored by JWTAuth.  JSON
// numbers decode as float64, so that form is accepted along with strings
// and integers.
func UserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 && v == float64(uint64(v)) {
			return uint64(v), true
		}
	case uint64:
		return v, v > 0
	case int64:
		return uint64(v), v > 0
	case int:
		return uint64(v), v > 0
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

// Role returns the role claim stored by JWTAuth, or "" when absent.
func Role(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}

// currentUserID renders the caller for cache and rate limit keys.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
