package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/model"
)

func TestRenderProducesPDF(t *testing.T) {
	loc := time.FixedZone("UTC-06:00", -6*3600)
	r := NewPDFRenderer(loc)
	r.Now = func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) }

	doc, err := r.Render(model.InvoiceData{
		Reservator:    model.User{Name: "Ana", Lastname: "López", Email: "ana@example.com", Address: "Managua"},
		PlaceName:     "Salón Azul",
		PricePerHour:  decimal.NewFromInt(1000),
		DurationHours: decimal.NewFromInt(2),
		Services:      []model.ServiceLine{{PlaceServiceID: 11, Name: "Sonido", Price: decimal.NewFromInt(500)}},
		Reservation: model.ReservationDetail{
			ID:        100,
			StartTime: time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC),
			Bill: model.BillView{
				SubTotal:   decimal.NewFromInt(2500),
				IVA:        decimal.NewFromInt(375),
				ServiceTax: decimal.NewFromInt(125),
				Total:      decimal.NewFromInt(3000),
				Payment:    model.PaymentRef{ReferenceCode: "123456789012", FullName: "Ana López"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Factura.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))
}

func TestSpanishDates(t *testing.T) {
	at := time.Date(2024, 3, 5, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "5 de marzo de 2024", longDate(at))
	assert.Equal(t, "5 de marzo de 2024 a las 3:04 pm", longDateTime(at))
	assert.Equal(t, "C$ 12.50", money(decimal.RequireFromString("12.5")))
}
