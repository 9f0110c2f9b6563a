package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation records a user's booking of a venue for a time window.
// The window is [StartTime, EndTime).  ReservationDate is the moment the
// booking was made, which is distinct from the booked window.
// Cancellation flips IsActive to false; rows are never deleted.
//
// Fields:
//
//	ID              – primary key identifier.
//	PlaceID         – venue being reserved.
//	UserID          – user who made the reservation (the reservator).
//	StartTime       – first instant of the booked window (UTC).
//	EndTime         – end of the booked window (UTC).
//	ReservationDate – creation timestamp of the booking (UTC).
//	IsConfirmed     – always true on creation.
//	IsActive        – false once cancelled.
type Reservation struct {
	ID              uint64    // reservations.id
	PlaceID         uint64    // reservations.place_id
	UserID          uint64    // reservations.user_id
	StartTime       time.Time // reservations.start_time
	EndTime         time.Time // reservations.end_time
	ReservationDate time.Time // reservations.reservation_date
	IsConfirmed     bool      // reservations.is_confirmed
	IsActive        bool      // reservations.is_active
}

// Bill is the charge breakdown of one reservation.  It is written once
// with the reservation and never updated.
type Bill struct {
	ID            uint64          // bills.id
	ReservationID uint64          // bills.reservation_id
	SubTotal      decimal.Decimal // bills.sub_total
	IVA           decimal.Decimal // bills.iva
	ServiceTax    decimal.Decimal // bills.service_tax
	Total         decimal.Decimal // bills.total
}

// Payment is the payment instrument recorded against a bill.  CardNumber
// only ever holds the masked form of the card.
type Payment struct {
	ID            uint64 // payments.id
	BillID        uint64 // payments.bill_id
	ReferenceCode string // payments.reference_code
	CardNumber    string // payments.card_number (masked)
	FullName      string // payments.full_name
}

// NewReservation is the aggregate written by a single transaction:
// the reservation row, its bill, its payment and its service selections.
type NewReservation struct {
	Reservation     Reservation
	Bill            Bill
	Payment         Payment
	PlaceServiceIDs []uint64
}

// PersonRef is the public view of a user attached to a reservation.
type PersonRef struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

// PlaceRef is the venue summary returned with a reservation.
type PlaceRef struct {
	ID           uint64          `json:"id"`
	Name         string          `json:"name"`
	CategoryID   uint64          `json:"categoryId"`
	PricePerHour decimal.Decimal `json:"pricePerHour"`
	Owner        PersonRef       `json:"owner"`
}

// PaymentRef exposes the payment reference but never the card number.
type PaymentRef struct {
	ID            uint64 `json:"id"`
	ReferenceCode string `json:"referenceCode"`
	FullName      string `json:"fullName"`
}

// BillView is the JSON shape of a bill together with its payment.
type BillView struct {
	ID         uint64          `json:"id"`
	SubTotal   decimal.Decimal `json:"subTotal"`
	IVA        decimal.Decimal `json:"iva"`
	ServiceTax decimal.Decimal `json:"serviceTax"`
	Total      decimal.Decimal `json:"total"`
	Payment    PaymentRef      `json:"payment"`
}

// ServiceLine is one selected add-on service with its current price.
type ServiceLine struct {
	PlaceServiceID uint64          `json:"id"`
	Name           string          `json:"name"`
	IconURL        string          `json:"iconUrl"`
	Price          decimal.Decimal `json:"price"`
}

// ReservationDetail is the joined read model of a reservation: venue and
// owner, reservator, bill with payment and the selected services.  It is
// returned by create and list operations.
type ReservationDetail struct {
	ID              uint64        `json:"id"`
	ReservationDate time.Time     `json:"reservationDate"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	IsConfirmed     bool          `json:"isConfirmed"`
	IsActive        bool          `json:"isActive"`
	Place           PlaceRef      `json:"place"`
	User            PersonRef     `json:"user"`
	Bill            BillView      `json:"bill"`
	Services        []ServiceLine `json:"services"`
}
