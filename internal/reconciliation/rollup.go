package reconciliation

import (
	"github.com/shopspring/decimal"
)

// Totals is the invoice level aggregate of its current lines. Only TotalUnits
// is persisted on the invoice header.
type Totals struct {
	TotalUnits         float64 `json:"totalUnits"`
	TotalReceivedUnits float64 `json:"totalReceivedUnits"`
	TotalReceivedValue float64 `json:"totalReceivedValue"`
}

// Rollup sums quantity, received units and received value across lines.
func Rollup(lines []Result) Totals {
	units := decimal.Zero
	received := decimal.Zero
	value := decimal.Zero
	for _, l := range lines {
		units = units.Add(dec(l.Quantity))
		received = received.Add(dec(l.ReceivedUnits))
		value = value.Add(dec(l.ReceivedValue))
	}
	return Totals{
		TotalUnits:         units.InexactFloat64(),
		TotalReceivedUnits: received.InexactFloat64(),
		TotalReceivedValue: value.InexactFloat64(),
	}
}

// VoucherTolerance is the largest absolute difference between the expected
// received value and the voucher amount that still counts as a match.
const VoucherTolerance = 1.0

// VoucherCheck compares the received value of an invoice against the amount
// on its payment voucher.
type VoucherCheck struct {
	Expected      float64 `json:"expected"`
	VoucherAmount float64 `json:"voucherAmount"`
	Difference    float64 `json:"difference"`
	Matches       bool    `json:"matches"`
}

// CheckVoucher computes expected = Σ receivedValue and difference =
// expected − voucherAmount.
func CheckVoucher(lines []Result, voucherAmount float64) VoucherCheck {
	expected := dec(Rollup(lines).TotalReceivedValue)
	diff := expected.Sub(dec(voucherAmount))
	return VoucherCheck{
		Expected:      expected.InexactFloat64(),
		VoucherAmount: dec(voucherAmount).InexactFloat64(),
		Difference:    diff.InexactFloat64(),
		Matches:       diff.Abs().LessThan(decimal.NewFromFloat(VoucherTolerance)),
	}
}
