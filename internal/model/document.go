package model

import "github.com/shopspring/decimal"

// InvoiceData is everything the invoice renderer needs to produce a
// billing document for one reservation.
type InvoiceData struct {
	Reservator    User
	PlaceName     string
	PricePerHour  decimal.Decimal
	DurationHours decimal.Decimal
	Services      []ServiceLine
	Reservation   ReservationDetail
}

// Document is a rendered binary file.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// Message is an outgoing email.  It is also the payload of the
// notification queue, so it carries JSON tags.
type Message struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
