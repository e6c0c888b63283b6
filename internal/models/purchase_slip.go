package models

import (
	"strings"
	"time"

	"ricemill-backend/internal/slipcalc"
)

const DefaultDocumentType = "Purchase Slip"

// PurchaseSlip is one paddy procurement. Derived columns are written only by
// Recalculate or slipcalc.Calculate and are never taken from a client.
type PurchaseSlip struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	BillNo int       `gorm:"uniqueIndex;not null" json:"bill_no"`
	Date   time.Time `gorm:"index;not null" json:"date"`

	DocumentType       string `gorm:"size:255;default:'Purchase Slip'" json:"document_type"`
	CompanyName        string `gorm:"type:text" json:"company_name"`
	CompanyAddress     string `gorm:"type:text" json:"company_address"`
	CompanyGSTNo       string `gorm:"column:company_gst_no;size:255" json:"company_gst_no"`
	CompanyMobileNo    string `gorm:"size:255" json:"company_mobile_no"`
	VehicleNo          string `gorm:"size:255" json:"vehicle_no"`
	PartyName          string `gorm:"size:255;index" json:"party_name"`
	MobileNumber       string `gorm:"size:255" json:"mobile_number"`
	MaterialName       string `gorm:"type:text" json:"material_name"`
	TicketNo           string `gorm:"size:255" json:"ticket_no"`
	Broker             string `gorm:"size:255" json:"broker"`
	BrokerMobileNumber string `gorm:"size:255" json:"broker_mobile_number"`
	TermsOfDelivery    string `gorm:"type:text" json:"terms_of_delivery"`
	SupInvNo           string `gorm:"size:255" json:"sup_inv_no"`
	GSTNo              string `gorm:"column:gst_no;size:255" json:"gst_no"`

	// weights
	Bags          float64 `json:"bags"`
	NetWeightKg   float64 `json:"net_weight_kg"`
	GunnyWeightKg float64 `json:"gunny_weight_kg"`
	FinalWeightKg float64 `json:"final_weight_kg"`
	WeightQuintal float64 `json:"weight_quintal"`
	WeightKhandi  float64 `json:"weight_khandi"`
	AvgBagWeight  float64 `json:"avg_bag_weight"`

	// pricing
	RateBasis           string  `gorm:"size:50;default:'Quintal'" json:"rate_basis"`
	RateValue           float64 `json:"rate_value"`
	TotalPurchaseAmount float64 `json:"total_purchase_amount"`

	// deductions
	BankCommission     float64 `json:"bank_commission"`
	Postage            float64 `json:"postage"`
	BatavPercent       float64 `json:"batav_percent"`
	Batav              float64 `json:"batav"`
	ShortagePercent    float64 `json:"shortage_percent"`
	Shortage           float64 `json:"shortage"`
	DalaliRate         float64 `json:"dalali_rate"`
	Dalali             float64 `json:"dalali"`
	HammaliRate        float64 `json:"hammali_rate"`
	Hammali            float64 `json:"hammali"`
	Freight            float64 `json:"freight"`
	RateDiff           float64 `json:"rate_diff"`
	QualityDiff        float64 `json:"quality_diff"`
	QualityDiffComment string  `gorm:"type:text" json:"quality_diff_comment"`
	MoistureDed        float64 `json:"moisture_ded"`
	MoistureDedComment string  `gorm:"type:text" json:"moisture_ded_comment"`
	MoisturePercent    float64 `json:"moisture_percent"`
	MoistureKg         float64 `json:"moisture_kg"`
	TDS                float64 `gorm:"column:tds" json:"tds"`
	TotalDeduction     float64 `json:"total_deduction"`
	PayableAmount      float64 `json:"payable_amount"`

	PaymentDueDate    *time.Time `json:"payment_due_date"`
	PaymentDueComment string     `gorm:"type:text" json:"payment_due_comment"`

	Instalment1Date               *time.Time `gorm:"column:instalment_1_date" json:"instalment_1_date"`
	Instalment1Amount             float64    `gorm:"column:instalment_1_amount" json:"instalment_1_amount"`
	Instalment1PaymentMethod      string     `gorm:"column:instalment_1_payment_method;size:255" json:"instalment_1_payment_method"`
	Instalment1PaymentBankAccount string     `gorm:"column:instalment_1_payment_bank_account;type:text" json:"instalment_1_payment_bank_account"`
	Instalment1Comment            string     `gorm:"column:instalment_1_comment;type:text" json:"instalment_1_comment"`

	Instalment2Date               *time.Time `gorm:"column:instalment_2_date" json:"instalment_2_date"`
	Instalment2Amount             float64    `gorm:"column:instalment_2_amount" json:"instalment_2_amount"`
	Instalment2PaymentMethod      string     `gorm:"column:instalment_2_payment_method;size:255" json:"instalment_2_payment_method"`
	Instalment2PaymentBankAccount string     `gorm:"column:instalment_2_payment_bank_account;type:text" json:"instalment_2_payment_bank_account"`
	Instalment2Comment            string     `gorm:"column:instalment_2_comment;type:text" json:"instalment_2_comment"`

	Instalment3Date               *time.Time `gorm:"column:instalment_3_date" json:"instalment_3_date"`
	Instalment3Amount             float64    `gorm:"column:instalment_3_amount" json:"instalment_3_amount"`
	Instalment3PaymentMethod      string     `gorm:"column:instalment_3_payment_method;size:255" json:"instalment_3_payment_method"`
	Instalment3PaymentBankAccount string     `gorm:"column:instalment_3_payment_bank_account;type:text" json:"instalment_3_payment_bank_account"`
	Instalment3Comment            string     `gorm:"column:instalment_3_comment;type:text" json:"instalment_3_comment"`

	Instalment4Date               *time.Time `gorm:"column:instalment_4_date" json:"instalment_4_date"`
	Instalment4Amount             float64    `gorm:"column:instalment_4_amount" json:"instalment_4_amount"`
	Instalment4PaymentMethod      string     `gorm:"column:instalment_4_payment_method;size:255" json:"instalment_4_payment_method"`
	Instalment4PaymentBankAccount string     `gorm:"column:instalment_4_payment_bank_account;type:text" json:"instalment_4_payment_bank_account"`
	Instalment4Comment            string     `gorm:"column:instalment_4_comment;type:text" json:"instalment_4_comment"`

	Instalment5Date               *time.Time `gorm:"column:instalment_5_date" json:"instalment_5_date"`
	Instalment5Amount             float64    `gorm:"column:instalment_5_amount" json:"instalment_5_amount"`
	Instalment5PaymentMethod      string     `gorm:"column:instalment_5_payment_method;size:255" json:"instalment_5_payment_method"`
	Instalment5PaymentBankAccount string     `gorm:"column:instalment_5_payment_bank_account;type:text" json:"instalment_5_payment_bank_account"`
	Instalment5Comment            string     `gorm:"column:instalment_5_comment;type:text" json:"instalment_5_comment"`

	PreparedBy           string `gorm:"size:255" json:"prepared_by"`
	AuthorisedSign       string `gorm:"size:255" json:"authorised_sign"`
	PaddyUnloadingGodown string `gorm:"type:text" json:"paddy_unloading_godown"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Instalment is one payment slot of a slip.
type Instalment struct {
	N           int        `json:"n"`
	Date        *time.Time `json:"date"`
	Amount      float64    `json:"amount"`
	Method      string     `json:"payment_method"`
	BankAccount string     `json:"payment_bank_account"`
	Comment     string     `json:"comment"`
}

// Paid reports whether anything was recorded in the slot.
func (i Instalment) Paid() bool {
	return i.Amount != 0 || i.Date != nil
}

func (s *PurchaseSlip) Instalments() [slipcalc.InstalmentCount]Instalment {
	return [slipcalc.InstalmentCount]Instalment{
		{1, s.Instalment1Date, s.Instalment1Amount, s.Instalment1PaymentMethod, s.Instalment1PaymentBankAccount, s.Instalment1Comment},
		{2, s.Instalment2Date, s.Instalment2Amount, s.Instalment2PaymentMethod, s.Instalment2PaymentBankAccount, s.Instalment2Comment},
		{3, s.Instalment3Date, s.Instalment3Amount, s.Instalment3PaymentMethod, s.Instalment3PaymentBankAccount, s.Instalment3Comment},
		{4, s.Instalment4Date, s.Instalment4Amount, s.Instalment4PaymentMethod, s.Instalment4PaymentBankAccount, s.Instalment4Comment},
		{5, s.Instalment5Date, s.Instalment5Amount, s.Instalment5PaymentMethod, s.Instalment5PaymentBankAccount, s.Instalment5Comment},
	}
}

// PaymentTotals returns the amount paid across all instalments and the balance
// still owed against PayableAmount.
func (s *PurchaseSlip) PaymentTotals() (totalPaid, balance float64) {
	ins := s.Instalments()
	amounts := make([]float64, len(ins))
	for i, in := range ins {
		amounts[i] = in.Amount
	}
	return slipcalc.Totals(s.PayableAmount, amounts...)
}

// LastPaymentDate is the latest dated instalment, or nil.
func (s *PurchaseSlip) LastPaymentDate() *time.Time {
	var last *time.Time
	for _, in := range s.Instalments() {
		if in.Date != nil && (last == nil || in.Date.After(*last)) {
			last = in.Date
		}
	}
	return last
}

func (s *PurchaseSlip) raw() slipcalc.Raw {
	basis := strings.TrimSpace(s.RateBasis)
	if basis == "" {
		basis = slipcalc.RateBasisQuintal
	}
	return slipcalc.Raw{
		Bags:            s.Bags,
		NetWeightKg:     s.NetWeightKg,
		GunnyWeightKg:   s.GunnyWeightKg,
		RateBasis:       basis,
		RateValue:       s.RateValue,
		BankCommission:  s.BankCommission,
		Postage:         s.Postage,
		Freight:         s.Freight,
		RateDiff:        s.RateDiff,
		QualityDiff:     s.QualityDiff,
		MoistureDed:     s.MoistureDed,
		TDS:             s.TDS,
		BatavPercent:    s.BatavPercent,
		ShortagePercent: s.ShortagePercent,
		DalaliRate:      s.DalaliRate,
		HammaliRate:     s.HammaliRate,
	}
}

// Recalculate overwrites every derived column from the raw ones.
func (s *PurchaseSlip) Recalculate() {
	r := s.raw()
	d := slipcalc.Derive(r)

	s.RateBasis = r.RateBasis
	s.FinalWeightKg = d.FinalWeightKg
	s.WeightQuintal = d.WeightQuintal
	s.WeightKhandi = d.WeightKhandi
	s.AvgBagWeight = d.AvgBagWeight
	s.TotalPurchaseAmount = d.TotalPurchaseAmount
	s.Batav = d.Batav
	s.Shortage = d.Shortage
	s.Dalali = d.Dalali
	s.Hammali = d.Hammali
	s.TotalDeduction = d.TotalDeduction
	s.PayableAmount = d.PayableAmount
}

// PurchaseSlipView is a slip as returned to clients and printed, with the
// read-time payment totals attached.
type PurchaseSlipView struct {
	PurchaseSlip
	TotalPaidAmount float64 `json:"total_paid_amount"`
	BalanceAmount   float64 `json:"balance_amount"`
}

func (s *PurchaseSlip) View() *PurchaseSlipView {
	paid, balance := s.PaymentTotals()
	return &PurchaseSlipView{PurchaseSlip: *s, TotalPaidAmount: paid, BalanceAmount: balance}
}
