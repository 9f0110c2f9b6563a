package service

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationStore is the persistence contract of the reservation engine.
// CreateAggregate must write the reservation, bill, payment and
// selections atomically and re-check overlap inside the same transaction.
type ReservationStore interface {
	CountOverlapping(ctx context.Context, placeID uint64, start, end time.Time) (int64, error)
	CreateAggregate(ctx context.Context, in *model.NewReservation) error
	GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error)
	FindActive(ctx context.Context, id uint64) (model.Reservation, error)
	List(ctx context.Context, f model.ReservationFilter, page model.Pagination) ([]model.ReservationDetail, error)
	Count(ctx context.Context, f model.ReservationFilter) (int64, error)
	Deactivate(ctx context.Context, id uint64) error
}

type PlaceStore interface {
	GetPlace(ctx context.Context, id uint64) (model.Place, error)
	ActiveServices(ctx context.Context, placeID uint64, ids []uint64) ([]model.PlaceService, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id uint64) (model.User, error)
}

// InvoiceRenderer turns invoice data into a binary document.
type InvoiceRenderer interface {
	Render(data model.InvoiceData) (model.Document, error)
}

// Notifier delivers a message.  Implementations may send inline or hand
// the message to a queue.
type Notifier interface {
	Send(ctx context.Context, msg model.Message) error
}

// ChangeListener is told after a reservation was created or cancelled.
// It must not block; failures are the listener's own business.
type ChangeListener interface {
	ReservationsChanged(ctx context.Context)
}
