package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/service"
)

// ReservationEngine is the service surface used by ReservationHandler.
// *service.ReservationService satisfies it.
type ReservationEngine interface {
	VerifyAvailability(ctx context.Context, placeID uint64, start, end time.Time) (bool, error)
	Create(ctx context.Context, req service.CreateRequest, userID uint64) (*model.ReservationDetail, error)
	FindAll(ctx context.Context, q service.ListQuery, page model.Pagination, userID uint64) ([]model.ReservationDetail, error)
	Count(ctx context.Context, q service.ListQuery, userID uint64) (int64, error)
	Remove(ctx context.Context, reservationID, userID uint64) (string, error)
}

// ReservationHandler serves /v1/reservation.  JWT authentication and the
// role check run before every method.
type ReservationHandler struct {
	Engine ReservationEngine
}

func NewReservationHandler(engine ReservationEngine) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine}
}

type verifyRequest struct {
	StartDate Timestamp `json:"startDate"`
	EndDate   Timestamp `json:"endDate"`
	PlaceID   uint64    `json:"placeId" validate:"required"`
}

type createRequest struct {
	StartDate        Timestamp `json:"startDate"`
	EndDate          Timestamp `json:"endDate"`
	PlaceID          uint64    `json:"placeId" validate:"required"`
	Services         []uint64  `json:"services"`
	PaymentName      string    `json:"paymentName" validate:"required"`
	CreditCardNumber string    `json:"creditCardNumber" validate:"required,credit_card"`
	ExpirationMonth  int       `json:"expirationMonth" validate:"required,min=1,max=12"`
	ExpirationYear   int       `json:"expirationYear" validate:"required"`
	CVV              int       `json:"cvv" validate:"min=0,max=999"`
}

type listParams struct {
	Search       string `query:"search"`
	Date         string `query:"date"`
	CategoryID   uint64 `query:"categoryId"`
	ReservatorID uint64 `query:"reservatorId"`
	HostID       uint64 `query:"hostId"`
	Limit        int    `query:"limit"`
	Offset       int    `query:"offset"`
}

func (p listParams) query() service.ListQuery {
	return service.ListQuery{
		Search:       p.Search,
		Date:         p.Date,
		CategoryID:   p.CategoryID,
		ReservatorID: p.ReservatorID,
		HostID:       p.HostID,
	}
}

// VerifyDisponibility handles POST /v1/reservation/verify-disponibility
// and answers {"available": bool}.
func (h *ReservationHandler) VerifyDisponibility(c echo.Context) error {
	var body verifyRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	ok, err := h.Engine.VerifyAvailability(c.Request().Context(), body.PlaceID, body.StartDate.Time, body.EndDate.Time)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

// Create handles POST /v1/reservation.  On success it returns 201 with
// the joined reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	detail, err := h.Engine.Create(c.Request().Context(), service.CreateRequest{
		PlaceID:         body.PlaceID,
		Start:           body.StartDate.Time,
		End:             body.EndDate.Time,
		ServiceIDs:      body.Services,
		PaymentName:     body.PaymentName,
		CardNumber:      body.CreditCardNumber,
		ExpirationMonth: body.ExpirationMonth,
		ExpirationYear:  body.ExpirationYear,
		CVV:             body.CVV,
	}, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// FindAll handles GET /v1/reservation.
func (h *ReservationHandler) FindAll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var p listParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid query parameters"})
	}
	out, err := h.Engine.FindAll(c.Request().Context(), p.query(), model.Pagination{Limit: p.Limit, Offset: p.Offset}, userID)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []model.ReservationDetail{}
	}
	return c.JSON(http.StatusOK, out)
}

// Count handles GET /v1/reservation/count and answers {"count": n}.
func (h *ReservationHandler) Count(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var p listParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid query parameters"})
	}
	n, err := h.Engine.Count(c.Request().Context(), p.query(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// Remove handles DELETE /v1/reservation/:id.
func (h *ReservationHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "invalid reservation id"})
	}
	msg, err := h.Engine.Remove(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// bindAndValidate returns a 400 *echo.HTTPError when the body cannot be
// decoded or fails validation.  Callers must stop on a non-nil error.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		return badRequest(msg)
	}
	return nil
}

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "validation", "message": msg})
}

// respondError maps a service error to its HTTP status.  Internal errors
// are logged and their text is not sent to the client.
func respondError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case service.KindValidation, service.KindPolicy:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindForbidden:
		status = http.StatusForbidden
	}
	msg := err.Error()
	if kind == service.KindInternal {
		logger.WithContext(c.Request().Context()).Error("request failed", "err", err, "path", c.Path())
		msg = "internal server error"
	}
	return c.JSON(status, echo.Map{"error": kind.String(), "message": msg})
}
