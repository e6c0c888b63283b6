// Package dashboard aggregates purchase slips into the figures behind the
// dashboard charts.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"

	trendDays        = 30
	topSupplierCount = 10
	outstandingCount = 20
	dayLayout        = "2006-01-02"
)

var (
	deductionLabels = []string{"Moisture", "Quality", "Dalali", "Hammali", "Commission", "Freight"}
	paymentModes    = []string{"Cash", "Online Transfer", "Cheque"}
)

type Metrics struct {
	TotalPaddyQntl      float64 `json:"totalPaddyQntl"`
	TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
	TotalDeductions     float64 `json:"totalDeductions"`
	NetPayable          float64 `json:"netPayable"`
	TotalBills          int     `json:"totalBills"`
	TotalPaid           float64 `json:"totalPaid"`
	TotalOutstanding    float64 `json:"totalOutstanding"`
	AvgEffectiveRate    float64 `json:"avgEffectiveRate"`
}

type DailySeries struct {
	Dates      []string  `json:"dates"`
	Quantities []float64 `json:"quantities"`
}

type RateSeries struct {
	Dates []string  `json:"dates"`
	Rates []float64 `json:"rates"`
}

type Breakdown struct {
	Labels  []string  `json:"labels"`
	Amounts []float64 `json:"amounts"`
}

type Suppliers struct {
	Names      []string  `json:"names"`
	Quantities []float64 `json:"quantities"`
}

// Ageing buckets outstanding amounts by slip age: 0-7, 8-30, 31-60 and over 60 days.
type Ageing struct {
	Amounts []float64 `json:"amounts"`
}

type PaymentModes struct {
	Modes   []string  `json:"modes"`
	Amounts []float64 `json:"amounts"`
}

type GodownStock struct {
	Godowns    []string  `json:"godowns"`
	Quantities []float64 `json:"quantities"`
}

type PartyOutstanding struct {
	FarmerName      string  `json:"farmerName"`
	TotalPurchase   float64 `json:"totalPurchase"`
	TotalPaid       float64 `json:"totalPaid"`
	Outstanding     float64 `json:"outstanding"`
	LastPaymentDate *string `json:"lastPaymentDate"`
	DaysOverdue     int     `json:"daysOverdue"`
}

type Response struct {
	Success       bool               `json:"success"`
	Period        string             `json:"period"`
	Metrics       Metrics            `json:"metrics"`
	DailyPurchase DailySeries        `json:"dailyPurchase"`
	RateTrend     RateSeries         `json:"rateTrend"`
	Deductions    Breakdown          `json:"deductions"`
	TopSuppliers  Suppliers          `json:"topSuppliers"`
	Ageing        Ageing             `json:"ageing"`
	PaymentMode   PaymentModes       `json:"paymentMode"`
	GodownStock   GodownStock        `json:"godownStock"`
	Outstanding   []PartyOutstanding `json:"outstanding"`
}

// Window returns the [from, to) range of slip dates a period covers. Zero
// bounds are open. Unknown periods cover everything.
func Window(period string, now time.Time) (from, to time.Time) {
	today := timeutil.StartOfDay(now)
	switch period {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1)
	case PeriodWeek:
		return today.AddDate(0, 0, -7), time.Time{}
	case PeriodMonth:
		return today.AddDate(0, 0, -30), time.Time{}
	case PeriodYear:
		return today.AddDate(0, 0, -365), time.Time{}
	default:
		return time.Time{}, time.Time{}
	}
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// daysSince counts calendar days in IST from t to now.
func daysSince(t, now time.Time) int {
	return int(timeutil.StartOfDay(now).Sub(timeutil.StartOfDay(t)).Hours() / 24)
}

type total struct{ d decimal.Decimal }

func (t *total) add(v float64) { t.d = t.d.Add(decimal.NewFromFloat(v)) }

func (t total) money() float64 { return t.d.Round(2).InexactFloat64() }

func (t total) qntl() float64 { return t.d.Round(3).InexactFloat64() }

type dayBucket struct {
	qntl      total
	rateSum   decimal.Decimal
	rateCount int64
}

type partyBucket struct {
	purchase, paid, outstanding total
	lastPayment                 *time.Time
	lastSlip                    time.Time
}

type namedQty struct {
	name string
	qty  float64
}

// sortDesc orders by quantity, largest first, then by name.
func sortDesc(items []namedQty) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].qty != items[j].qty {
			return items[i].qty > items[j].qty
		}
		return items[i].name < items[j].name
	})
}

// Build aggregates the slips dated inside period. Slips outside it are ignored.
func Build(slips []models.PurchaseSlip, period string, now time.Time) Response {
	from, to := Window(period, now)

	var (
		qntl, purchase, deductionsTotal, payable, paid total
		deductions                                     [6]total
		ageing                                         [4]total
		modes                                          [3]total
		bills                                          int
	)
	days := map[string]*dayBucket{}
	suppliers := map[string]*total{}
	godowns := map[string]*total{}
	parties := map[string]*partyBucket{}

	for i := range slips {
		s := &slips[i]
		if !inWindow(s.Date, from, to) {
			continue
		}
		bills++

		slipPaid, balance := s.PaymentTotals()
		qntl.add(s.WeightQuintal)
		purchase.add(s.TotalPurchaseAmount)
		deductionsTotal.add(s.TotalDeduction)
		payable.add(s.PayableAmount)
		paid.add(slipPaid)

		for j, v := range []float64{s.MoistureDed, s.QualityDiff, s.Dalali, s.Hammali, s.BankCommission, s.Freight} {
			deductions[j].add(v)
		}

		switch age := daysSince(s.Date, now); {
		case age <= 7:
			ageing[0].add(balance)
		case age <= 30:
			ageing[1].add(balance)
		case age <= 60:
			ageing[2].add(balance)
		default:
			ageing[3].add(balance)
		}

		for _, in := range s.Instalments() {
			for j, mode := range paymentModes {
				if in.Method == mode {
					modes[j].add(in.Amount)
				}
			}
		}

		day := s.Date.In(timeutil.IST).Format(dayLayout)
		b := days[day]
		if b == nil {
			b = &dayBucket{}
			days[day] = b
		}
		b.qntl.add(s.WeightQuintal)
		if s.WeightQuintal > 0 {
			b.rateSum = b.rateSum.Add(decimal.NewFromFloat(s.PayableAmount).Div(decimal.NewFromFloat(s.WeightQuintal)))
			b.rateCount++
		}

		if g := strings.TrimSpace(s.PaddyUnloadingGodown); g != "" {
			if godowns[g] == nil {
				godowns[g] = &total{}
			}
			godowns[g].add(s.WeightQuintal)
		}

		party := strings.TrimSpace(s.PartyName)
		if party == "" {
			continue
		}
		if suppliers[party] == nil {
			suppliers[party] = &total{}
		}
		suppliers[party].add(s.WeightQuintal)

		p := parties[party]
		if p == nil {
			p = &partyBucket{}
			parties[party] = p
		}
		p.purchase.add(s.TotalPurchaseAmount)
		p.paid.add(slipPaid)
		p.outstanding.add(balance)
		if last := s.LastPaymentDate(); last != nil && (p.lastPayment == nil || last.After(*p.lastPayment)) {
			p.lastPayment = last
		}
		if s.Date.After(p.lastSlip) {
			p.lastSlip = s.Date
		}
	}

	resp := Response{Success: true, Period: period}

	resp.Metrics = Metrics{
		TotalPaddyQntl:      qntl.qntl(),
		TotalPurchaseAmount: purchase.money(),
		TotalDeductions:     deductionsTotal.money(),
		NetPayable:          payable.money(),
		TotalBills:          bills,
		TotalPaid:           paid.money(),
		TotalOutstanding:    total{payable.d.Sub(paid.d)}.money(),
	}
	if qntl.d.IsPositive() {
		resp.Metrics.AvgEffectiveRate = payable.d.Div(qntl.d).Round(2).InexactFloat64()
	}

	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)
	resp.DailyPurchase = DailySeries{Dates: []string{}, Quantities: []float64{}}
	resp.RateTrend = RateSeries{Dates: []string{}, Rates: []float64{}}
	for _, k := range dayKeys {
		b := days[k]
		if len(resp.DailyPurchase.Dates) < trendDays {
			resp.DailyPurchase.Dates = append(resp.DailyPurchase.Dates, k)
			resp.DailyPurchase.Quantities = append(resp.DailyPurchase.Quantities, b.qntl.qntl())
		}
		if b.rateCount > 0 && len(resp.RateTrend.Dates) < trendDays {
			resp.RateTrend.Dates = append(resp.RateTrend.Dates, k)
			resp.RateTrend.Rates = append(resp.RateTrend.Rates, b.rateSum.Div(decimal.NewFromInt(b.rateCount)).Round(2).InexactFloat64())
		}
	}

	resp.Deductions = Breakdown{Labels: deductionLabels, Amounts: make([]float64, len(deductions))}
	for i, d := range deductions {
		resp.Deductions.Amounts[i] = d.money()
	}

	resp.Ageing = Ageing{Amounts: make([]float64, len(ageing))}
	for i, a := range ageing {
		resp.Ageing.Amounts[i] = a.money()
	}

	resp.PaymentMode = PaymentModes{Modes: paymentModes, Amounts: make([]float64, len(modes))}
	for i, m := range modes {
		resp.PaymentMode.Amounts[i] = m.money()
	}

	top := make([]namedQty, 0, len(suppliers))
	for name, t := range suppliers {
		top = append(top, namedQty{name, t.qntl()})
	}
	sortDesc(top)
	if len(top) > topSupplierCount {
		top = top[:topSupplierCount]
	}
	resp.TopSuppliers = Suppliers{Names: []string{}, Quantities: []float64{}}
	for _, s := range top {
		resp.TopSuppliers.Names = append(resp.TopSuppliers.Names, s.name)
		resp.TopSuppliers.Quantities = append(resp.TopSuppliers.Quantities, s.qty)
	}

	stock := make([]namedQty, 0, len(godowns))
	for name, t := range godowns {
		stock = append(stock, namedQty{name, t.qntl()})
	}
	sortDesc(stock)
	resp.GodownStock = GodownStock{Godowns: []string{"No Data"}, Quantities: []float64{0}}
	if len(stock) > 0 {
		resp.GodownStock = GodownStock{}
		for _, g := range stock {
			resp.GodownStock.Godowns = append(resp.GodownStock.Godowns, g.name)
			resp.GodownStock.Quantities = append(resp.GodownStock.Quantities, g.qty)
		}
	}

	resp.Outstanding = []PartyOutstanding{}
	for name, p := range parties {
		if !p.outstanding.d.IsPositive() {
			continue
		}
		row := PartyOutstanding{
			FarmerName:    name,
			TotalPurchase: p.purchase.money(),
			TotalPaid:     p.paid.money(),
			Outstanding:   p.outstanding.money(),
			DaysOverdue:   daysSince(p.lastSlip, now),
		}
		if p.lastPayment != nil {
			d := p.lastPayment.In(timeutil.IST).Format(dayLayout)
			row.LastPaymentDate = &d
		}
		resp.Outstanding = append(resp.Outstanding, row)
	}
	sort.SliceStable(resp.Outstanding, func(i, j int) bool {
		a, b := resp.Outstanding[i], resp.Outstanding[j]
		if a.Outstanding != b.Outstanding {
			return a.Outstanding > b.Outstanding
		}
		return a.FarmerName < b.FarmerName
	})
	if len(resp.Outstanding) > outstandingCount {
		resp.Outstanding = resp.Outstanding[:outstandingCount]
	}

	return resp
}
