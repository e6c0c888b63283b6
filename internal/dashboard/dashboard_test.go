package dashboard

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/testutil"
	"ricemill-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, timeutil.IST)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func slip(party string, date time.Time, netKg, rate float64) models.PurchaseSlip {
	s := models.PurchaseSlip{
		Date:        date,
		PartyName:   party,
		NetWeightKg: netKg,
		RateBasis:   "Quintal",
		RateValue:   rate,
	}
	s.Recalculate()
	return s
}

func fixtures() []models.PurchaseSlip {
	a := slip("Ramesh", daysAgo(0), 1000, 2000) // 10 q, 20000
	a.Freight = 500
	a.Recalculate() // payable 19500
	a.PaddyUnloadingGodown = "Godown A"
	paid := daysAgo(0)
	a.Instalment1Amount, a.Instalment1PaymentMethod, a.Instalment1Date = 5000, "Cash", &paid

	b := slip("Suresh", daysAgo(10), 2000, 2100) // 20 q, 42000
	b.PaddyUnloadingGodown = "Godown B"
	b.Instalment1Amount, b.Instalment1PaymentMethod = 42000, "Online Transfer"

	c := slip("Ramesh", daysAgo(45), 500, 1800) // 5 q, 9000
	c.PaddyUnloadingGodown = "Godown A"
	c.Instalment1Amount, c.Instalment1PaymentMethod = 1000, "Cheque"

	d := slip("Mahesh", daysAgo(400), 300, 2000) // outside a year
	return []models.PurchaseSlip{a, b, c, d}
}

func TestWindow(t *testing.T) {
	from, to := Window(PeriodToday, now)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, timeutil.IST), from)
	assert.Equal(t, from.AddDate(0, 0, 1), to)

	from, to = Window(PeriodMonth, now)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, timeutil.IST), from)
	assert.True(t, to.IsZero())

	from, to = Window("forever", now)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestBuildYear(t *testing.T) {
	r := Build(fixtures(), PeriodYear, now)

	m := r.Metrics
	assert.Equal(t, 3, m.TotalBills)
	assert.Equal(t, 35.0, m.TotalPaddyQntl)
	assert.Equal(t, 71000.0, m.TotalPurchaseAmount)
	assert.Equal(t, 500.0, m.TotalDeductions)
	assert.Equal(t, 70500.0, m.NetPayable)
	assert.Equal(t, 48000.0, m.TotalPaid)
	assert.Equal(t, 22500.0, m.TotalOutstanding)
	assert.Equal(t, 2014.29, m.AvgEffectiveRate)

	assert.Equal(t, []string{"2024-05-16", "2024-06-20", "2024-06-30"}, r.DailyPurchase.Dates)
	assert.Equal(t, []float64{5, 20, 10}, r.DailyPurchase.Quantities)
	assert.Equal(t, []float64{1800, 2100, 1950}, r.RateTrend.Rates)

	assert.Equal(t, []float64{0, 0, 0, 0, 0, 500}, r.Deductions.Amounts)
	assert.Equal(t, []float64{14500, 0, 8000, 0}, r.Ageing.Amounts)
	assert.Equal(t, []float64{5000, 42000, 1000}, r.PaymentMode.Amounts)

	assert.Equal(t, []string{"Suresh", "Ramesh"}, r.TopSuppliers.Names)
	assert.Equal(t, []float64{20, 15}, r.TopSuppliers.Quantities)

	assert.Equal(t, []string{"Godown B", "Godown A"}, r.GodownStock.Godowns)
	assert.Equal(t, []float64{20, 15}, r.GodownStock.Quantities)

	require.Len(t, r.Outstanding, 1)
	o := r.Outstanding[0]
	assert.Equal(t, "Ramesh", o.FarmerName)
	assert.Equal(t, 29000.0, o.TotalPurchase)
	assert.Equal(t, 6000.0, o.TotalPaid)
	assert.Equal(t, 22500.0, o.Outstanding)
	assert.Equal(t, 0, o.DaysOverdue)
	require.NotNil(t, o.LastPaymentDate)
	assert.Equal(t, "2024-06-30", *o.LastPaymentDate)
}

func TestBuildPeriods(t *testing.T) {
	assert.Equal(t, 1, Build(fixtures(), PeriodToday, now).Metrics.TotalBills)
	assert.Equal(t, 1, Build(fixtures(), PeriodWeek, now).Metrics.TotalBills)
	assert.Equal(t, 2, Build(fixtures(), PeriodMonth, now).Metrics.TotalBills)
	assert.Equal(t, 4, Build(fixtures(), PeriodAll, now).Metrics.TotalBills)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, PeriodMonth, now)

	assert.Zero(t, r.Metrics.TotalBills)
	assert.Zero(t, r.Metrics.AvgEffectiveRate)
	assert.Empty(t, r.DailyPurchase.Dates)
	assert.Equal(t, []string{"No Data"}, r.GodownStock.Godowns)
	assert.NotNil(t, r.Outstanding)
	assert.Len(t, r.Deductions.Labels, 6)
}

type stubSource struct {
	slips    []models.PurchaseSlip
	from, to time.Time
	err      error
}

func (s *stubSource) Between(_ context.Context, from, to time.Time) ([]models.PurchaseSlip, error) {
	s.from, s.to = from, to
	return s.slips, s.err
}

func TestDashboardHandler(t *testing.T) {
	src := &stubSource{slips: fixtures()}
	app := testutil.NewApp()
	app.Get("/api/dashboard", DashboardHandler(src))

	body := testutil.ParseResponse(t, testutil.DoRequest(t, app, "GET", "/api/dashboard?period=all", nil, ""))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 4, body["metrics"].(map[string]any)["totalBills"])
	assert.True(t, src.from.IsZero())

	testutil.DoRequest(t, app, "GET", "/api/dashboard", nil, "")
	assert.False(t, src.from.IsZero())

	src.err = errors.New("db down")
	resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
