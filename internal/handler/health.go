package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/database"
)

// Health returns a health-check handler for load balancers.  It pings
// MySQL and answers 200 "ok", or 503 when the database is unreachable.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := database.HealthCheck(c.Request().Context(), db); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.String(http.StatusOK, "ok")
	}
}
