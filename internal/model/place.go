package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceStatus is the moderation state of a venue.
type PlaceStatus string

const (
	PlaceReview   PlaceStatus = "REVIEW"
	PlaceApproved PlaceStatus = "APPROVED"
	PlaceRejected PlaceStatus = "REJECTED"
)

// Place is a bookable venue.  PricePerHour is the base rate charged for
// every hour (or fraction of an hour) of a reservation.  Only places in
// the APPROVED state accept new reservations.
type Place struct {
	ID           uint64          // places.id
	OwnerID      uint64          // places.user_id
	CategoryID   uint64          // places.category_id
	Name         string          // places.name
	Address      string          // places.address
	PricePerHour decimal.Decimal // places.price_per_hour
	Status       PlaceStatus     // places.status
	CreatedAt    time.Time       // places.created_at
}

// Bookable reports whether the place may receive reservations.
func (p Place) Bookable() bool { return p.Status == PlaceApproved }

// PlaceService is an add-on service offered by a venue at a venue-specific
// price.  Reservations reference it through place_service_reservations.
type PlaceService struct {
	ID        uint64          // place_services.id
	PlaceID   uint64          // place_services.place_id
	ServiceID uint64          // place_services.service_id
	Name      string          // services.name
	IconURL   string          // services.icon_url
	Price     decimal.Decimal // place_services.price
	IsActive  bool            // place_services.is_active
}
