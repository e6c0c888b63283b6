package slipcalc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	RateBasisQuintal = "Quintal"
	RateBasisKhandi  = "Khandi"
)

const (
	KgPerQuintal = 100
	KgPerKhandi  = 150
)

// Raw input keys.
const (
	KeyBags            = "bags"
	KeyNetWeightKg     = "net_weight_kg"
	KeyGunnyWeightKg   = "gunny_weight_kg"
	KeyRateBasis       = "rate_basis"
	KeyRateValue       = "rate_value"
	KeyBankCommission  = "bank_commission"
	KeyPostage         = "postage"
	KeyFreight         = "freight"
	KeyRateDiff        = "rate_diff"
	KeyQualityDiff     = "quality_diff"
	KeyMoistureDed     = "moisture_ded"
	KeyTDS             = "tds"
	KeyBatavPercent    = "batav_percent"
	KeyShortagePercent = "shortage_percent"
	KeyDalaliRate      = "dalali_rate"
	KeyHammaliRate     = "hammali_rate"
)

// Derived keys. Callers never supply these; Calculate always overwrites them.
const (
	KeyFinalWeightKg       = "final_weight_kg"
	KeyWeightQuintal       = "weight_quintal"
	KeyWeightKhandi        = "weight_khandi"
	KeyAvgBagWeight        = "avg_bag_weight"
	KeyTotalPurchaseAmount = "total_purchase_amount"
	KeyBatav               = "batav"
	KeyShortage            = "shortage"
	KeyDalali              = "dalali"
	KeyHammali             = "hammali"
	KeyTotalDeduction      = "total_deduction"
	KeyPayableAmount       = "payable_amount"
)

// DerivedKeys lists every field Calculate owns.
var DerivedKeys = []string{
	KeyFinalWeightKg, KeyWeightQuintal, KeyWeightKhandi, KeyAvgBagWeight,
	KeyTotalPurchaseAmount, KeyBatav, KeyShortage, KeyDalali, KeyHammali,
	KeyTotalDeduction, KeyPayableAmount,
}

// Raw holds the normalized inputs of the calculation.
type Raw struct {
	Bags            float64
	NetWeightKg     float64
	GunnyWeightKg   float64
	RateBasis       string
	RateValue       float64
	BankCommission  float64
	Postage         float64
	Freight         float64
	RateDiff        float64
	QualityDiff     float64
	MoistureDed     float64
	TDS             float64
	BatavPercent    float64
	ShortagePercent float64
	DalaliRate      float64
	HammaliRate     float64
}

// Derived holds the computed fields of a slip.
type Derived struct {
	FinalWeightKg       float64
	WeightQuintal       float64
	WeightKhandi        float64
	AvgBagWeight        float64
	TotalPurchaseAmount float64
	Batav               float64
	Shortage            float64
	Dalali              float64
	Hammali             float64
	TotalDeduction      float64
	PayableAmount       float64
}

// IsKnownRateBasis reports whether basis prices the slip. Any other value zeroes
// the purchase amount.
func IsKnownRateBasis(basis string) bool {
	return basis == RateBasisQuintal || basis == RateBasisKhandi
}

// RateBasisOf reads rate_basis from f. Absent, nil and blank values default to
// Quintal; non-string values are kept in their printed form so they stay unrecognized.
func RateBasisOf(f Fields) string {
	v, ok := f[KeyRateBasis]
	if !ok || v == nil {
		return RateBasisQuintal
	}
	s, isString := v.(string)
	if !isString {
		return fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return RateBasisQuintal
	}
	return s
}

// RawFrom normalizes the calculation inputs out of f.
func RawFrom(f Fields) Raw {
	return Raw{
		Bags:            Float(f[KeyBags], 0),
		NetWeightKg:     Float(f[KeyNetWeightKg], 0),
		GunnyWeightKg:   Float(f[KeyGunnyWeightKg], 0),
		RateBasis:       RateBasisOf(f),
		RateValue:       Float(f[KeyRateValue], 0),
		BankCommission:  Float(f[KeyBankCommission], 0),
		Postage:         Float(f[KeyPostage], 0),
		Freight:         Float(f[KeyFreight], 0),
		RateDiff:        Float(f[KeyRateDiff], 0),
		QualityDiff:     Float(f[KeyQualityDiff], 0),
		MoistureDed:     Float(f[KeyMoistureDed], 0),
		TDS:             Float(f[KeyTDS], 0),
		BatavPercent:    Float(f[KeyBatavPercent], 0),
		ShortagePercent: Float(f[KeyShortagePercent], 0),
		DalaliRate:      Float(f[KeyDalaliRate], 0),
		HammaliRate:     Float(f[KeyHammaliRate], 0),
	}
}

// Derive computes every derived field from r. Derived values depend only on r,
// never on a previous Derived, which makes repeated application stable.
func Derive(r Raw) Derived {
	hundred := decimal.NewFromInt(100)

	net := dec(r.NetWeightKg)
	final := net.Sub(dec(r.GunnyWeightKg))
	if final.IsNegative() {
		final = decimal.Zero
	}
	final = final.Round(2)

	quintal := final.Div(decimal.NewFromInt(KgPerQuintal)).Round(3)
	khandi := final.Div(decimal.NewFromInt(KgPerKhandi)).Round(3)

	avgBag := decimal.Zero
	if r.Bags > 0 {
		avgBag = final.Div(dec(r.Bags)).Round(2)
	}

	purchase := decimal.Zero
	switch r.RateBasis {
	case RateBasisQuintal:
		purchase = quintal.Mul(dec(r.RateValue)).Round(2)
	case RateBasisKhandi:
		purchase = khandi.Mul(dec(r.RateValue)).Round(2)
	}

	percentOf := func(pct float64) decimal.Decimal {
		if pct <= 0 {
			return decimal.Zero
		}
		return purchase.Mul(dec(pct).Div(hundred)).Round(2)
	}
	// dalali and hammali are charged on net weight, before the gunny tare.
	perHundredKg := func(rate float64) decimal.Decimal {
		if rate <= 0 {
			return decimal.Zero
		}
		return net.Div(hundred).Mul(dec(rate)).Round(2)
	}

	batav := percentOf(r.BatavPercent)
	shortage := percentOf(r.ShortagePercent)
	dalali := perHundredKg(r.DalaliRate)
	hammali := perHundredKg(r.HammaliRate)

	deduction := decimal.Sum(
		dec(r.BankCommission),
		dec(r.Postage),
		batav,
		shortage,
		dalali,
		hammali,
		dec(r.Freight),
		dec(r.RateDiff),
		dec(r.QualityDiff),
		dec(r.MoistureDed),
		dec(r.TDS),
	).Round(2)

	payable := purchase.Sub(deduction).Round(2)

	return Derived{
		FinalWeightKg:       final.InexactFloat64(),
		WeightQuintal:       quintal.InexactFloat64(),
		WeightKhandi:        khandi.InexactFloat64(),
		AvgBagWeight:        avgBag.InexactFloat64(),
		TotalPurchaseAmount: purchase.InexactFloat64(),
		Batav:               batav.InexactFloat64(),
		Shortage:            shortage.InexactFloat64(),
		Dalali:              dalali.InexactFloat64(),
		Hammali:             hammali.InexactFloat64(),
		TotalDeduction:      deduction.InexactFloat64(),
		PayableAmount:       payable.InexactFloat64(),
	}
}

// Calculate returns a copy of in where the normalized raw inputs and every derived
// field have been written back. in itself is left untouched.
func Calculate(in Fields) Fields {
	out := make(Fields, len(in)+len(DerivedKeys)+16)
	for k, v := range in {
		out[k] = v
	}

	r := RawFrom(in)
	d := Derive(r)

	out[KeyBags] = r.Bags
	out[KeyNetWeightKg] = r.NetWeightKg
	out[KeyGunnyWeightKg] = r.GunnyWeightKg
	out[KeyRateBasis] = r.RateBasis
	out[KeyRateValue] = r.RateValue
	out[KeyBankCommission] = r.BankCommission
	out[KeyPostage] = r.Postage
	out[KeyFreight] = r.Freight
	out[KeyRateDiff] = r.RateDiff
	out[KeyQualityDiff] = r.QualityDiff
	out[KeyMoistureDed] = r.MoistureDed
	out[KeyTDS] = r.TDS
	out[KeyBatavPercent] = r.BatavPercent
	out[KeyShortagePercent] = r.ShortagePercent
	out[KeyDalaliRate] = r.DalaliRate
	out[KeyHammaliRate] = r.HammaliRate

	out[KeyFinalWeightKg] = d.FinalWeightKg
	out[KeyWeightQuintal] = d.WeightQuintal
	out[KeyWeightKhandi] = d.WeightKhandi
	out[KeyAvgBagWeight] = d.AvgBagWeight
	out[KeyTotalPurchaseAmount] = d.TotalPurchaseAmount
	out[KeyBatav] = d.Batav
	out[KeyShortage] = d.Shortage
	out[KeyDalali] = d.Dalali
	out[KeyHammali] = d.Hammali
	out[KeyTotalDeduction] = d.TotalDeduction
	out[KeyPayableAmount] = d.PayableAmount

	return out
}
