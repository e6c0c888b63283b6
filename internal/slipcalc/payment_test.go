package slipcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentTotalsPartial(t *testing.T) {
	paid, balance := PaymentTotals(Fields{
		"payable_amount":      1000,
		"instalment_1_amount": 400,
		"instalment_3_amount": "300",
	})

	assert.Equal(t, 700.0, paid)
	assert.Equal(t, 300.0, balance)
}

func TestPaymentTotalsNoInstalments(t *testing.T) {
	paid, balance := PaymentTotals(Fields{"payable_amount": "2500.5"})

	assert.Equal(t, 0.0, paid)
	assert.Equal(t, 2500.5, balance)
}

func TestPaymentTotalsOverpaid(t *testing.T) {
	paid, balance := PaymentTotals(Fields{
		"payable_amount":      100,
		"instalment_1_amount": 60.1,
		"instalment_2_amount": 20.2,
		"instalment_4_amount": 30.3,
		"instalment_5_amount": "",
	})

	assert.Equal(t, 110.6, paid)
	assert.Equal(t, -10.6, balance)
}

func TestPaymentTotalsEmptyRecord(t *testing.T) {
	paid, balance := PaymentTotals(Fields{})

	assert.Equal(t, 0.0, paid)
	assert.Equal(t, 0.0, balance)
}

func TestTotalsBalanceIsPayableMinusPaid(t *testing.T) {
	paid, balance := Totals(39855.33, 10000, 0.1, 0.2, 5000.07)

	assert.Equal(t, 15000.37, paid)
	assert.Equal(t, 24854.96, balance)
}

func TestInstalmentKey(t *testing.T) {
	assert.Equal(t, "instalment_4_payment_method", InstalmentKey(4, "payment_method"))
}

func TestMergeOverridesAndRetains(t *testing.T) {
	existing := Fields{"party_name": "A", "net_weight_kg": 1000.0, "rate_value": 2000.0}
	patch := Fields{"net_weight_kg": "1200"}

	merged := Merge(existing, patch)

	assert.Equal(t, "A", merged["party_name"])
	assert.Equal(t, "1200", merged["net_weight_kg"])
	assert.Equal(t, 2000.0, merged["rate_value"])
	assert.Equal(t, 1000.0, existing["net_weight_kg"])
}

func TestMergeThenCalculateRecomputesEverything(t *testing.T) {
	stored := Calculate(Fields{
		"net_weight_kg":   1000,
		"gunny_weight_kg": 50,
		"rate_basis":      "Quintal",
		"rate_value":      2000,
		"batav_percent":   1,
	})
	assert.Equal(t, 190.0, stored[KeyBatav])

	updated := Calculate(Merge(stored, Fields{"net_weight_kg": 1550}))

	assert.Equal(t, 1500.0, updated[KeyFinalWeightKg])
	assert.Equal(t, 15.0, updated[KeyWeightQuintal])
	assert.Equal(t, 30000.0, updated[KeyTotalPurchaseAmount])
	assert.Equal(t, 300.0, updated[KeyBatav])
	assert.Equal(t, 29700.0, updated[KeyPayableAmount])
}
