package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationFilter narrows a reservation listing.  Zero values mean "no
// filter".  Day is already resolved into a UTC half-open range by the
// service so the repository never deals with time zones.
type ReservationFilter struct {
	Search       string
	DayStart     *time.Time
	DayEnd       *time.Time
	CategoryID   uint64
	HostID       uint64
	ReservatorID uint64
}

// Pagination is offset/limit paging.  A zero Limit means unbounded.
type Pagination struct {
	Limit  int
	Offset int
}

// Charge is the computed price of a prospective reservation.
type Charge struct {
	DurationHours decimal.Decimal
	PlaceAmount   decimal.Decimal
	SubTotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceTax    decimal.Decimal
	Total         decimal.Decimal
	Services      []ServiceLine
}
