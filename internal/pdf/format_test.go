package pdf

import (
	"testing"

	"ricemill-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		party string
		bill  int
		want  string
	}{
		{"Ramesh Traders", 12, "Purchase_Slip_Ramesh_Traders_12.pdf"},
		{"  M/s. Shree & Sons (Raipur) ", 7, "Purchase_Slip_Ms_Shree__Sons_Raipur_7.pdf"},
		{"", 3, "Purchase_Slip_Unknown_3.pdf"},
		{"a_b-c", 1, "Purchase_Slip_a_b-c_1.pdf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(&models.PurchaseSlip{PartyName: tt.party, BillNo: tt.bill}), tt.party)
	}
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:          "0.00",
		5.5:        "5.50",
		999.999:    "1,000.00",
		1000:       "1,000.00",
		39855.33:   "39,855.33",
		1234567.89: "12,34,567.89",
		-120:       "-120.00",
		-98765.4:   "-98,765.40",
	}
	for in, want := range tests {
		assert.Equal(t, want, Money(in), "%v", in)
	}
}

func TestQty(t *testing.T) {
	assert.Equal(t, "13.494", Qty(13.494))
	assert.Equal(t, "950", Qty(950))
	assert.Equal(t, "6.333", Qty(6.3333))
}
