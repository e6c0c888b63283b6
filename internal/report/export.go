// Package report exports slips as spreadsheets.
package report

import (
	"bytes"
	"fmt"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

const (
	SlipSheet    = "Slips"
	PaymentSheet = "Payments"
)

type column struct {
	title string
	width float64
	value func(s *models.PurchaseSlip) any
	sum   bool
}

var slipColumns = []column{
	{"Bill No", 9, func(s *models.PurchaseSlip) any { return s.BillNo }, false},
	{"Date", 17, func(s *models.PurchaseSlip) any { return timeutil.Format(s.Date) }, false},
	{"Party", 24, func(s *models.PurchaseSlip) any { return s.PartyName }, false},
	{"Mobile", 14, func(s *models.PurchaseSlip) any { return s.MobileNumber }, false},
	{"Broker", 18, func(s *models.PurchaseSlip) any { return s.Broker }, false},
	{"Vehicle No", 13, func(s *models.PurchaseSlip) any { return s.VehicleNo }, false},
	{"Material", 16, func(s *models.PurchaseSlip) any { return s.MaterialName }, false},
	{"Bags", 8, func(s *models.PurchaseSlip) any { return s.Bags }, true},
	{"Net Wt (kg)", 12, func(s *models.PurchaseSlip) any { return s.NetWeightKg }, true},
	{"Gunny Wt (kg)", 12, func(s *models.PurchaseSlip) any { return s.GunnyWeightKg }, true},
	{"Final Wt (kg)", 12, func(s *models.PurchaseSlip) any { return s.FinalWeightKg }, true},
	{"Quintal", 10, func(s *models.PurchaseSlip) any { return s.WeightQuintal }, true},
	{"Khandi", 10, func(s *models.PurchaseSlip) any { return s.WeightKhandi }, true},
	{"Rate Basis", 10, func(s *models.PurchaseSlip) any { return s.RateBasis }, false},
	{"Rate", 10, func(s *models.PurchaseSlip) any { return s.RateValue }, false},
	{"Purchase Amount", 15, func(s *models.PurchaseSlip) any { return s.TotalPurchaseAmount }, true},
	{"Total Deduction", 14, func(s *models.PurchaseSlip) any { return s.TotalDeduction }, true},
	{"Payable", 14, func(s *models.PurchaseSlip) any { return s.PayableAmount }, true},
	{"Paid", 14, func(s *models.PurchaseSlip) any { p, _ := s.PaymentTotals(); return p }, true},
	{"Balance", 14, func(s *models.PurchaseSlip) any { _, b := s.PaymentTotals(); return b }, true},
	{"Godown", 16, func(s *models.PurchaseSlip) any { return s.PaddyUnloadingGodown }, false},
}

var paymentHeaders = []string{"Bill No", "Party", "Instalment", "Date", "Amount", "Method", "Bank Account", "Comment"}

type styles struct {
	header int
	bold   int
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles{}, fmt.Errorf("header style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return styles{}, fmt.Errorf("total style: %w", err)
	}
	return styles{header: header, bold: bold}, nil
}

// Workbook writes one row per slip on the Slips sheet with a totals row, and
// one row per recorded instalment on the Payments sheet.
func Workbook(slips []models.PurchaseSlip) (*excelize.File, error) {
	f := excelize.NewFile()
	err := func() error {
		if err := f.SetSheetName("Sheet1", SlipSheet); err != nil {
			return err
		}
		st, err := newStyles(f)
		if err != nil {
			return err
		}
		if err := writeSlips(f, slips, st); err != nil {
			return err
		}
		if _, err := f.NewSheet(PaymentSheet); err != nil {
			return err
		}
		return writePayments(f, slips, st)
	}()
	if err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSlips(f *excelize.File, slips []models.PurchaseSlip, st styles) error {
	titles := make([]any, len(slipColumns))
	for i, c := range slipColumns {
		titles[i] = c.title
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SlipSheet, col, col, c.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(SlipSheet, "A1", &titles); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(slipColumns))
	if err := f.SetCellStyle(SlipSheet, "A1", last+"1", st.header); err != nil {
		return err
	}
	if err := f.SetPanes(SlipSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	for r := range slips {
		row := make([]any, len(slipColumns))
		for i, c := range slipColumns {
			row[i] = c.value(&slips[r])
		}
		if err := f.SetSheetRow(SlipSheet, fmt.Sprintf("A%d", r+2), &row); err != nil {
			return err
		}
	}

	totalRow := len(slips) + 2
	if err := f.SetCellValue(SlipSheet, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return err
	}
	if len(slips) > 0 {
		for i, c := range slipColumns {
			if !c.sum {
				continue
			}
			col, _ := excelize.ColumnNumberToName(i + 1)
			formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, totalRow-1)
			if err := f.SetCellFormula(SlipSheet, fmt.Sprintf("%s%d", col, totalRow), formula); err != nil {
				return fmt.Errorf("total formula %s: %w", col, err)
			}
		}
	}
	return f.SetCellStyle(SlipSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("%s%d", last, totalRow), st.bold)
}

func writePayments(f *excelize.File, slips []models.PurchaseSlip, st styles) error {
	if err := f.SetSheetRow(PaymentSheet, "A1", &paymentHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(PaymentSheet, "A1", "H1", st.header); err != nil {
		return err
	}
	widths := []struct {
		from, to string
		width    float64
	}{{"B", "B", 24}, {"D", "D", 12}, {"G", "H", 20}}
	for _, w := range widths {
		if err := f.SetColWidth(PaymentSheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}

	row := 2
	for i := range slips {
		s := &slips[i]
		for _, in := range s.Instalments() {
			if !in.Paid() {
				continue
			}
			values := []any{s.BillNo, s.PartyName, in.N, timeutil.FormatPtr(in.Date), in.Amount, in.Method, in.BankAccount, in.Comment}
			if err := f.SetSheetRow(PaymentSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

// XLSX renders Workbook to bytes.
func XLSX(slips []models.PurchaseSlip) ([]byte, error) {
	f, err := Workbook(slips)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
