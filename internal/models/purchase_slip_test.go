package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculateMatchesCalculator(t *testing.T) {
	s := PurchaseSlip{
		NetWeightKg:   1000,
		GunnyWeightKg: 50,
		RateValue:     2000,
		BatavPercent:  1,
		DalaliRate:    10,
		PayableAmount: 123, // stale
	}

	s.Recalculate()

	assert.Equal(t, "Quintal", s.RateBasis)
	assert.Equal(t, 950.0, s.FinalWeightKg)
	assert.Equal(t, 9.5, s.WeightQuintal)
	assert.Equal(t, 19000.0, s.TotalPurchaseAmount)
	assert.Equal(t, 190.0, s.Batav)
	assert.Equal(t, 100.0, s.Dalali)
	assert.Equal(t, 290.0, s.TotalDeduction)
	assert.Equal(t, 18710.0, s.PayableAmount)
}

func TestPaymentTotalsAndView(t *testing.T) {
	d1 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)
	s := PurchaseSlip{
		PayableAmount:     1000,
		Instalment1Amount: 400,
		Instalment1Date:   &d1,
		Instalment3Amount: 300,
		Instalment3Date:   &d3,
	}

	paid, balance := s.PaymentTotals()
	assert.Equal(t, 700.0, paid)
	assert.Equal(t, 300.0, balance)
	assert.Equal(t, &d3, s.LastPaymentDate())

	raw, err := json.Marshal(s.View())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 700.0, m["total_paid_amount"])
	assert.Equal(t, 300.0, m["balance_amount"])
	assert.Equal(t, 1000.0, m["payable_amount"])
	assert.Contains(t, m, "instalment_5_payment_bank_account")
}

func TestInstalmentsOrder(t *testing.T) {
	s := PurchaseSlip{Instalment2Amount: 5, Instalment2PaymentMethod: "Cash"}

	ins := s.Instalments()

	assert.Equal(t, 2, ins[1].N)
	assert.True(t, ins[1].Paid())
	assert.Equal(t, "Cash", ins[1].Method)
	assert.False(t, ins[0].Paid())
	assert.Nil(t, s.LastPaymentDate())
}
