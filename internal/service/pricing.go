package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
)

var (
	// TaxRate is the IVA applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.15")
	// ServiceTaxRate is the platform fee applied to the subtotal.
	ServiceTaxRate = decimal.RequireFromString("0.05")

	totalMultiplier = decimal.NewFromInt(1).Add(TaxRate).Add(ServiceTaxRate)
	msPerHour       = decimal.NewFromInt(int64(time.Hour / time.Millisecond))
)

// DurationHours returns the length of [start, end) in hours with
// millisecond resolution.  The result may be fractional.
func DurationHours(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(end.Sub(start).Milliseconds()).Div(msPerHour)
}

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// ComputeCharge prices a reservation of place for durationHours with the
// given selected place-service IDs.  offered is the venue's service list;
// a selected ID only counts when it appears in offered, belongs to place
// and is active, otherwise it contributes zero.  Repeated IDs count once.
//
// The subtotal is rounded to cents first and every other amount is derived
// from the rounded subtotal, so Total always equals round2(SubTotal*1.20).
func ComputeCharge(place model.Place, durationHours decimal.Decimal, offered []model.PlaceService, selected []uint64) model.Charge {
	byID := make(map[uint64]model.PlaceService, len(offered))
	for _, s := range offered {
		if s.PlaceID == place.ID && s.IsActive {
			byID[s.ID] = s
		}
	}

	placeAmount := place.PricePerHour.Mul(durationHours)
	servicesAmount := decimal.Zero
	lines := make([]model.ServiceLine, 0, len(selected))
	seen := make(map[uint64]bool, len(selected))
	for _, id := range selected {
		s, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		servicesAmount = servicesAmount.Add(s.Price)
		lines = append(lines, model.ServiceLine{
			PlaceServiceID: s.ID,
			Name:           s.Name,
			IconURL:        s.IconURL,
			Price:          s.Price,
		})
	}

	subTotal := round2(placeAmount.Add(servicesAmount))
	return model.Charge{
		DurationHours: durationHours,
		PlaceAmount:   round2(placeAmount),
		SubTotal:      subTotal,
		Tax:           round2(subTotal.Mul(TaxRate)),
		ServiceTax:    round2(subTotal.Mul(ServiceTaxRate)),
		Total:         round2(subTotal.Mul(totalMultiplier)),
		Services:      lines,
	}
}
