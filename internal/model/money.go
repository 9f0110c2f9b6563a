package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// amount renders a money value as a JSON number with two decimals.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (b BillView) MarshalJSON() ([]byte, error) {
	type plain BillView
	return json.Marshal(struct {
		plain
		SubTotal   json.Number `json:"subTotal"`
		IVA        json.Number `json:"iva"`
		ServiceTax json.Number `json:"serviceTax"`
		Total      json.Number `json:"total"`
	}{plain(b), amount(b.SubTotal), amount(b.IVA), amount(b.ServiceTax), amount(b.Total)})
}

func (p PlaceRef) MarshalJSON() ([]byte, error) {
	type plain PlaceRef
	return json.Marshal(struct {
		plain
		PricePerHour json.Number `json:"pricePerHour"`
	}{plain(p), amount(p.PricePerHour)})
}

func (s ServiceLine) MarshalJSON() ([]byte, error) {
	type plain ServiceLine
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(s), amount(s.Price)})
}
