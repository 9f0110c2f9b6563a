// Package invoice renders the billing document attached to the
// reservation confirmation email.
package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const (
	// Filename is the attachment name of every rendered invoice.
	Filename    = "Factura.pdf"
	contentType = "application/pdf"
	brand       = "EventSpace"
	currency    = "C$"
)

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// PDFRenderer draws invoices with fpdf.  Dates are printed in Location.
type PDFRenderer struct {
	Location *time.Location
	Now      func() time.Time
}

// NewPDFRenderer returns a renderer printing dates in loc.
func NewPDFRenderer(loc *time.Location) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFRenderer{Location: loc, Now: time.Now}
}

// Render produces the invoice document for one reservation.
func (r *PDFRenderer) Render(data model.InvoiceData) (model.Document, error) {
	now := r.Now().In(r.Location)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Factura Electrónica", true)
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr("Factura Electrónica"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Fecha: "+longDate(now)), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 10, brand, "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	res := data.Reservation
	section(pdf, tr, "Detalles del Cliente")
	line(pdf, tr, "Nombre del Cliente: "+data.Reservator.FullName())
	line(pdf, tr, "Dirección: "+data.Reservator.Address)
	line(pdf, tr, "Email: "+data.Reservator.Email)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Datos de la reserva", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	line(pdf, tr, "Fecha de inicio: "+longDateTime(res.StartTime.In(r.Location)))
	line(pdf, tr, "Fecha de fin: "+longDateTime(res.EndTime.In(r.Location)))
	pdf.Ln(4)

	section(pdf, tr, "Productos/Servicios")
	widths := []float64{80, 30, 40, 40}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(229, 231, 235)
	for i, h := range []string{"Descripción", "Cantidad", "Precio Unitario", "Total"} {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	row := func(desc, qty string, unit, total decimal.Decimal) {
		pdf.CellFormat(widths[0], 8, tr(desc), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 8, qty, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 8, money(unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 8, money(total), "1", 1, "C", false, 0, "")
	}
	row(fmt.Sprintf("Lugar: %s - Hora", data.PlaceName), data.DurationHours.Round(2).String(),
		data.PricePerHour, data.PricePerHour.Mul(data.DurationHours).Round(2))
	for _, s := range data.Services {
		row("Servicio: "+s.Name, "1", s.Price, s.Price)
	}
	pdf.Ln(6)

	bill := res.Bill
	section(pdf, tr, "Resumen de Pago")
	line(pdf, tr, "Nombre: "+bill.Payment.FullName)
	line(pdf, tr, "No. de referencia: "+bill.Payment.ReferenceCode)
	line(pdf, tr, "Subtotal: "+money(bill.SubTotal))
	line(pdf, tr, "Impuestos (IVA): "+money(bill.IVA))
	line(pdf, tr, "Tarifa de servicio: "+money(bill.ServiceTax))
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Total: "+money(bill.Total), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return model.Document{}, fmt.Errorf("render invoice: %w", err)
	}
	return model.Document{Filename: Filename, ContentType: contentType, Content: buf.Bytes()}, nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
}

func money(d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

// longDate formats t as "2 de enero de 2024".
func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// longDateTime formats t as "2 de enero de 2024 a las 3:04 pm".
func longDateTime(t time.Time) string {
	return longDate(t) + " a las " + t.Format("3:04 pm")
}
