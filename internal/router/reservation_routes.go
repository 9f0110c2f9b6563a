package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Guards are the per-route middlewares applied after authentication.  Any
// of them may be nil.
type Guards struct {
	Cache      echo.MiddlewareFunc // listing responses
	ReadLimit  echo.MiddlewareFunc // reads and availability checks
	WriteLimit echo.MiddlewareFunc // create and cancel
}

// RegisterReservation registers the reservation endpoints under
// /v1/reservation.  Every route requires a valid JWT carrying one of the
// four platform roles; what each role may see is decided by the service.
func RegisterReservation(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, guards Guards) {
	g := e.Group(
		"/v1/reservation",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.Roles()...),
	)

	read := chain(guards.ReadLimit)
	list := chain(guards.ReadLimit, guards.Cache)
	write := chain(guards.WriteLimit)

	g.POST("/verify-disponibility", h.VerifyDisponibility, read...)
	g.POST("", h.Create, write...)
	g.GET("", h.FindAll, list...)
	g.GET("/count", h.Count, list...)
	g.DELETE("/:id", h.Remove, write...)
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
