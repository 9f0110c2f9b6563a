// Package service implements the reservation engine: availability,
// pricing, role scoping and the reservation lifecycle.  It talks to
// storage, invoice rendering and notification only through the
// interfaces in ports.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/metrics"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// CanceledMessage is returned by Remove on success.
const CanceledMessage = "Reservation canceled"

const maxReferenceAttempts = 3

// CreateRequest is a validated reservation request.  ServiceIDs are
// place_services ids of the requested venue.
type CreateRequest struct {
	PlaceID         uint64
	Start           time.Time
	End             time.Time
	ServiceIDs      []uint64
	PaymentName     string
	CardNumber      string
	ExpirationMonth int
	ExpirationYear  int
	CVV             int
}

// ListQuery is the filter a caller sends to FindAll and Count.  Date is a
// calendar day ("2006-01-02") or an RFC 3339 timestamp whose day is taken
// in the business zone.
type ListQuery struct {
	Search       string
	Date         string
	CategoryID   uint64
	ReservatorID uint64
	HostID       uint64
}

// Options carries the optional collaborators of ReservationService.
type Options struct {
	Clock        Clock
	Location     *time.Location // business-day zone, default UTC-6
	CancelWindow time.Duration  // default 24h
	Listener     ChangeListener
	NewReference func() (string, error)
}

// ReservationService orchestrates creation, listing and cancellation of
// reservations.
type ReservationService struct {
	reservations ReservationStore
	places       PlaceStore
	users        UserStore
	availability *AvailabilityChecker
	invoices     InvoiceRenderer
	notifier     Notifier

	clock        Clock
	loc          *time.Location
	cancelWindow time.Duration
	listener     ChangeListener
	newReference func() (string, error)
}

// NewReservationService wires the engine.  Zero Options fields fall back
// to the system clock, a UTC-6 business day and a 24 hour window.
func NewReservationService(reservations ReservationStore, places PlaceStore, users UserStore, invoices InvoiceRenderer, notifier Notifier, opts Options) *ReservationService {
	s := &ReservationService{
		reservations: reservations,
		places:       places,
		users:        users,
		availability: NewAvailabilityChecker(reservations),
		invoices:     invoices,
		notifier:     notifier,
		clock:        opts.Clock,
		loc:          opts.Location,
		cancelWindow: opts.CancelWindow,
		listener:     opts.Listener,
		newReference: opts.NewReference,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.loc == nil {
		s.loc = time.FixedZone("UTC-06:00", -6*3600)
	}
	if s.cancelWindow <= 0 {
		s.cancelWindow = 24 * time.Hour
	}
	if s.newReference == nil {
		s.newReference = func() (string, error) { return GenerateReferenceCode(ReferenceCodeLength) }
	}
	return s
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: startDate must be before endDate", ErrInvalidInput)
	}
	return nil
}

// VerifyAvailability reports whether placeID is free for [start, end].
func (s *ReservationService) VerifyAvailability(ctx context.Context, placeID uint64, start, end time.Time) (bool, error) {
	if err := validateWindow(start, end); err != nil {
		return false, err
	}
	if _, err := s.places.GetPlace(ctx, placeID); err != nil {
		return false, placeErr(err)
	}
	return s.availability.IsAvailable(ctx, placeID, start, end)
}

// Create books a place for userID.  The reservation, bill, payment and
// service selections are written in one transaction that re-checks the
// window.  The invoice email is sent after the commit; its failure is
// logged and does not affect the result.
func (s *ReservationService) Create(ctx context.Context, req CreateRequest, userID uint64) (*model.ReservationDetail, error) {
	log := logger.WithContext(ctx)

	if err := validateWindow(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.PlaceID == 0 {
		return nil, fmt.Errorf("%w: placeId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.PaymentName) == "" || strings.TrimSpace(req.CardNumber) == "" {
		return nil, fmt.Errorf("%w: payment details are required", ErrInvalidInput)
	}

	free, err := s.availability.IsAvailable(ctx, req.PlaceID, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !free {
		metrics.ReservationConflicts.Inc()
		return nil, ErrPlaceNotAvailable
	}

	place, err := s.places.GetPlace(ctx, req.PlaceID)
	if err != nil {
		return nil, placeErr(err)
	}
	if !place.Bookable() {
		return nil, fmt.Errorf("%w: status %s", ErrPlaceNotBookable, place.Status)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}

	offered, err := s.places.ActiveServices(ctx, place.ID, uniqueIDs(req.ServiceIDs))
	if err != nil {
		return nil, fmt.Errorf("load place services: %w", err)
	}
	charge := ComputeCharge(place, DurationHours(req.Start, req.End), offered, req.ServiceIDs)

	selected := make([]uint64, 0, len(charge.Services))
	for _, line := range charge.Services {
		selected = append(selected, line.PlaceServiceID)
	}
	agg := &model.NewReservation{
		Reservation: model.Reservation{
			PlaceID:         place.ID,
			UserID:          userID,
			StartTime:       req.Start.UTC(),
			EndTime:         req.End.UTC(),
			ReservationDate: s.clock.Now().UTC(),
			IsConfirmed:     true,
			IsActive:        true,
		},
		Bill: model.Bill{
			SubTotal:   charge.SubTotal,
			IVA:        charge.Tax,
			ServiceTax: charge.ServiceTax,
			Total:      charge.Total,
		},
		Payment: model.Payment{
			CardNumber: MaskCardNumber(req.CardNumber),
			FullName:   strings.TrimSpace(req.PaymentName),
		},
		PlaceServiceIDs: selected,
	}

	if err := s.persist(ctx, agg); err != nil {
		return nil, err
	}
	metrics.ReservationsCreated.Inc()
	log.Info("reservation created",
		"reservation_id", agg.Reservation.ID,
		"place_id", place.ID,
		"total", charge.Total.StringFixed(2),
	)
	s.changed(ctx)

	// Committed: a failed reload must not fail the request.
	detail, err := s.reservations.GetDetail(ctx, agg.Reservation.ID)
	if err != nil {
		log.Error("reload reservation failed, answering from written rows",
			"reservation_id", agg.Reservation.ID, "err", err)
		detail = writtenDetail(agg, place, user, charge)
	}

	s.sendInvoice(ctx, user, place, charge, detail)
	return &detail, nil
}

// writtenDetail assembles the read model from what Create just wrote.
func writtenDetail(agg *model.NewReservation, place model.Place, user model.User, charge model.Charge) model.ReservationDetail {
	r := agg.Reservation
	return model.ReservationDetail{
		ID:              r.ID,
		ReservationDate: r.ReservationDate,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		IsConfirmed:     r.IsConfirmed,
		IsActive:        r.IsActive,
		Place: model.PlaceRef{
			ID:           place.ID,
			Name:         place.Name,
			CategoryID:   place.CategoryID,
			PricePerHour: place.PricePerHour,
			Owner:        model.PersonRef{ID: place.OwnerID},
		},
		User: model.PersonRef{ID: user.ID, Name: user.Name, Lastname: user.Lastname},
		Bill: model.BillView{
			ID:         agg.Bill.ID,
			SubTotal:   agg.Bill.SubTotal,
			IVA:        agg.Bill.IVA,
			ServiceTax: agg.Bill.ServiceTax,
			Total:      agg.Bill.Total,
			Payment: model.PaymentRef{
				ID:            agg.Payment.ID,
				ReferenceCode: agg.Payment.ReferenceCode,
				FullName:      agg.Payment.FullName,
			},
		},
		Services: charge.Services,
	}
}

// persist writes the aggregate, drawing a new payment reference when the
// previous one collided.
func (s *ReservationService) persist(ctx context.Context, agg *model.NewReservation) error {
	for attempt := 1; ; attempt++ {
		code, err := s.newReference()
		if err != nil {
			return fmt.Errorf("generate reference code: %w", err)
		}
		agg.Payment.ReferenceCode = code

		err = s.reservations.CreateAggregate(ctx, agg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrOverlap):
			metrics.ReservationConflicts.Inc()
			return ErrPlaceNotAvailable
		case errors.Is(err, repository.ErrNotFound):
			return ErrPlaceNotFound
		case errors.Is(err, repository.ErrDuplicateReference) && attempt < maxReferenceAttempts:
			logger.WithContext(ctx).Warn("payment reference collision, retrying", "attempt", attempt)
			continue
		}
		return fmt.Errorf("create reservation: %w", err)
	}
}

func (s *ReservationService) sendInvoice(ctx context.Context, user model.User, place model.Place, charge model.Charge, detail model.ReservationDetail) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithContext(ctx).With("reservation_id", detail.ID)

	doc, err := s.invoices.Render(model.InvoiceData{
		Reservator:    user,
		PlaceName:     place.Name,
		PricePerHour:  place.PricePerHour,
		DurationHours: charge.DurationHours,
		Services:      charge.Services,
		Reservation:   detail,
	})
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("invoice_render").Inc()
		log.Error("render invoice failed", "err", err)
		return
	}
	msg, err := invoiceMessage(user, doc)
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("invoice_email").Inc()
		log.Error("send invoice email failed", "err", err, "to", user.Email)
	}
}

// FindAll lists the reservations visible to userID that match q, newest
// first.
func (s *ReservationService) FindAll(ctx context.Context, q ListQuery, page model.Pagination, userID uint64) ([]model.ReservationDetail, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	f, err := s.effectiveFilter(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	out, err := s.reservations.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// Count returns how many reservations FindAll would return without
// pagination.
func (s *ReservationService) Count(ctx context.Context, q ListQuery, userID uint64) (int64, error) {
	f, err := s.effectiveFilter(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	n, err := s.reservations.Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// effectiveFilter resolves the caller's role and applies its Scope.  The
// role is read from storage rather than trusted from the token.
func (s *ReservationService) effectiveFilter(ctx context.Context, q ListQuery, userID uint64) (model.ReservationFilter, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return model.ReservationFilter{}, userErr(err)
	}
	scope, err := ScopeFor(user.Role)
	if err != nil {
		return model.ReservationFilter{}, err
	}

	f := model.ReservationFilter{
		Search:       strings.TrimSpace(q.Search),
		CategoryID:   q.CategoryID,
		HostID:       q.HostID,
		ReservatorID: q.ReservatorID,
	}
	if q.Date != "" {
		start, end, err := DayRange(q.Date, s.loc)
		if err != nil {
			return model.ReservationFilter{}, err
		}
		f.DayStart, f.DayEnd = &start, &end
	}
	return scope.Apply(userID, f)
}

// DayRange returns the UTC bounds [start, end) of the calendar day named
// by date in loc.  A plain date is that day in loc; a timestamp is first
// converted to loc.
func DayRange(date string, loc *time.Location) (time.Time, time.Time, error) {
	date = strings.TrimSpace(date)
	var day time.Time
	if d, err := time.ParseInLocation("2006-01-02", date, loc); err == nil {
		day = d
	} else if ts, err := time.Parse(time.RFC3339, date); err == nil {
		ts = ts.In(loc)
		day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	} else {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}

// Remove cancels reservationID on behalf of userID.  Only active
// reservations can be cancelled, only while the reservation date lies at
// most the cancellation window ahead of now, and only by the reservator.
func (s *ReservationService) Remove(ctx context.Context, reservationID, userID uint64) (string, error) {
	res, err := s.reservations.FindActive(ctx, reservationID)
	if err != nil {
		return "", reservationErr(err)
	}
	if res.ReservationDate.Sub(s.clock.Now()) > s.cancelWindow {
		return "", fmt.Errorf("%w: you can only cancel reservations %s before the reservation date",
			ErrCancellationWindow, humanHours(s.cancelWindow))
	}
	if err := CanCancel(userID, res); err != nil {
		return "", err
	}
	if err := s.reservations.Deactivate(ctx, reservationID); err != nil {
		return "", reservationErr(err)
	}
	metrics.ReservationsCancelled.Inc()
	logger.WithContext(ctx).Info("reservation cancelled", "reservation_id", reservationID)
	s.changed(ctx)

	s.sendCancellation(ctx, res)
	return CanceledMessage, nil
}

func (s *ReservationService) sendCancellation(ctx context.Context, res model.Reservation) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithContext(ctx).With("reservation_id", res.ID)

	user, err := s.users.GetUser(ctx, res.UserID)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("cancel_email").Inc()
		log.Error("load reservator for cancellation email failed", "err", err)
		return
	}
	msg, err := cancelMessage(user)
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("cancel_email").Inc()
		log.Error("send cancellation email failed", "err", err, "to", user.Email)
	}
}

func (s *ReservationService) changed(ctx context.Context) {
	if s.listener != nil {
		s.listener.ReservationsChanged(context.WithoutCancel(ctx))
	}
}

func humanHours(d time.Duration) string {
	return fmt.Sprintf("%d hours", int(d.Hours()))
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func placeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlaceNotFound
	}
	return fmt.Errorf("load place: %w", err)
}

func userErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("load user: %w", err)
}

func reservationErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReservationNotFound
	}
	return fmt.Errorf("reservation store: %w", err)
}
