package slipcalc

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  float64
		want float64
	}{
		{"nil", nil, 7, 7},
		{"empty string", "", 3, 3},
		{"whitespace", "   \t", 3, 3},
		{"numeric string", "12.5", 0, 12.5},
		{"padded numeric string", " 40 ", 0, 40},
		{"negative string", "-3.25", 0, -3.25},
		{"garbage string", "12kg", 9, 9},
		{"float64", 1.75, 0, 1.75},
		{"int", 42, 0, 42},
		{"int64", int64(-8), 0, -8},
		{"uint8", uint8(5), 0, 5},
		{"json number", json.Number("99.9"), 0, 99.9},
		{"bad json number", json.Number("x"), 2, 2},
		{"bool", true, 4, 4},
		{"slice", []int{1}, 4, 4},
		{"nan", math.NaN(), 1, 1},
		{"inf string", "Inf", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.in, tt.def))
		})
	}
}

func TestNormalizeWritesMissingKeysAsZero(t *testing.T) {
	f := Fields{"moisture_kg": "2.5", "moisture_percent": ""}

	Normalize(f, "moisture_kg", "moisture_percent", "instalment_1_amount")

	assert.Equal(t, 2.5, f["moisture_kg"])
	assert.Equal(t, 0.0, f["moisture_percent"])
	assert.Equal(t, 0.0, f["instalment_1_amount"])
}

// Halves round away from zero on the shortest decimal form of the float, so
// 2.675 becomes 2.68 even though its binary value sits just below the half.
func TestRoundHalvesAwayFromZero(t *testing.T) {
	assert.Equal(t, 2.68, round(2.675, 2))
	assert.Equal(t, -2.68, round(-2.675, 2))
	assert.Equal(t, 1.005, round(1.0045, 3))
	assert.Equal(t, 13.5, round(13.45, 1))

	out := Calculate(Fields{"net_weight_kg": 1002.675})
	assert.Equal(t, 1002.68, out["final_weight_kg"])
}
