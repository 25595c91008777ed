package reconciliation

import (
	"github.com/shopspring/decimal"
)

// Line is the stored state of an invoice detail that reconciliation reads.
// ReceivedUnits is nil when the line was never legalized.
type Line struct {
	Quantity           float64
	UnitPrice          float64
	VATTaxAmount       float64
	UnitDiscountAmount float64
	NetAmount          float64
	ReceivedUnits      *float64
}

// Input holds the values submitted for one line. A nil field keeps the stored
// value; a non-nil field is used as given, including an explicit zero.
type Input struct {
	ReceivedUnits      *float64
	Quantity           *float64
	UnitPrice          *float64
	VATTaxAmount       *float64
	UnitDiscountAmount *float64
	NetAmount          *float64
}

// Result is the authoritative state of a line after reconciliation.
type Result struct {
	Quantity           float64 `json:"quantity"`
	UnitPrice          float64 `json:"unitPrice"`
	VATTaxAmount       float64 `json:"vatTaxAmount"`
	UnitDiscountAmount float64 `json:"unitDiscountAmount"`
	NetAmount          float64 `json:"netAmount"`
	ReceivedUnits      float64 `json:"receivedUnits"`
	Novelty            float64 `json:"novelty"`
	ReceivedValue      float64 `json:"receivedValue"`
	ReturnedValue      float64 `json:"returnedValue"`
}

// ReconcileLine computes novelty, received value and returned value for a
// line. Received units default to the stored value and then to the full
// quantity. Negative received units are floored at zero; the quantity upper
// bound is not applied here (see ClampReceived).
func ReconcileLine(stored Line, in Input) Result {
	quantity := pick(in.Quantity, stored.Quantity)
	unitPrice := pick(in.UnitPrice, stored.UnitPrice)
	vat := pick(in.VATTaxAmount, stored.VATTaxAmount)
	discount := pick(in.UnitDiscountAmount, stored.UnitDiscountAmount)
	netAmount := pick(in.NetAmount, stored.NetAmount)

	received := quantity
	if stored.ReceivedUnits != nil {
		received = *stored.ReceivedUnits
	}
	if in.ReceivedUnits != nil {
		received = *in.ReceivedUnits
	}

	qty := dec(quantity)
	validated := decimal.Max(decimal.Zero, dec(received))
	novelty := decimal.Max(decimal.Zero, qty.Sub(validated))
	unitValue := dec(unitPrice).Add(dec(vat)).Sub(dec(discount))
	receivedValue := validated.Mul(unitValue)
	returnedValue := decimal.Max(decimal.Zero, dec(netAmount).Sub(receivedValue))

	return Result{
		Quantity:           qty.InexactFloat64(),
		UnitPrice:          dec(unitPrice).InexactFloat64(),
		VATTaxAmount:       dec(vat).InexactFloat64(),
		UnitDiscountAmount: dec(discount).InexactFloat64(),
		NetAmount:          dec(netAmount).InexactFloat64(),
		ReceivedUnits:      validated.InexactFloat64(),
		Novelty:            novelty.InexactFloat64(),
		ReceivedValue:      receivedValue.InexactFloat64(),
		ReturnedValue:      returnedValue.InexactFloat64(),
	}
}

// ClampReceived bounds a received-units input to [0, quantity]. The preview
// path applies it before reconciling, mirroring the edit form.
func ClampReceived(input, quantity float64) float64 {
	v := decimal.Max(decimal.Zero, dec(input))
	q := decimal.Max(decimal.Zero, dec(quantity))
	return decimal.Min(v, q).InexactFloat64()
}

// ExceedsQuantity reports whether the received units of r are above the
// dispatched quantity.
func ExceedsQuantity(r Result) bool {
	return dec(r.ReceivedUnits).GreaterThan(dec(r.Quantity))
}

func pick(override *float64, stored float64) float64 {
	if override != nil {
		return *override
	}
	return stored
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(Finite(f))
}
