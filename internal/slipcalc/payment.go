package slipcalc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InstalmentCount is the number of payment slots on a slip.
const InstalmentCount = 5

// InstalmentKey returns the column name of one attribute of instalment n (1-based),
// e.g. InstalmentKey(2, "amount") == "instalment_2_amount".
func InstalmentKey(n int, attr string) string {
	return fmt.Sprintf("instalment_%d_%s", n, attr)
}

// PaymentTotals sums the instalment amounts of f and returns the amount paid and the
// balance left against payable_amount. Missing amounts count as zero; the balance
// goes negative on overpayment.
func PaymentTotals(f Fields) (totalPaid, balance float64) {
	amounts := make([]float64, InstalmentCount)
	for i := range amounts {
		amounts[i] = Float(f[InstalmentKey(i+1, "amount")], 0)
	}
	return Totals(Float(f[KeyPayableAmount], 0), amounts...)
}

// Totals is the typed form of PaymentTotals.
func Totals(payable float64, amounts ...float64) (totalPaid, balance float64) {
	paid := decimal.Zero
	for _, a := range amounts {
		paid = paid.Add(dec(a))
	}
	paid = paid.Round(2)
	return paid.InexactFloat64(), dec(payable).Sub(paid).Round(2).InexactFloat64()
}

// Merge overlays patch on existing. Keys absent from patch keep their prior
// values; neither argument is modified. Derived fields in the result are stale
// until the result goes through Calculate.
func Merge(existing, patch Fields) Fields {
	out := make(Fields, len(existing)+len(patch))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
