package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"ricemill-backend/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 12.0
	rowHeight  = 6.0
	logoWidth  = 20.0
	logoGap    = 3.0
	// core fonts carry no rupee glyph
	currency = "Rs."
)

// FPDF draws the slip with go-pdf/fpdf core fonts. It needs no external service.
type FPDF struct {
	logoPath string
}

func NewFPDF(logoPath string) *FPDF {
	return &FPDF{logoPath: logoPath}
}

type pair struct{ label, value string }

func (r *FPDF) Render(ctx context.Context, s *models.PurchaseSlipView) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetTitle(fmt.Sprintf("%s #%d", s.DocumentType, s.BillNo), true)
	doc.SetCreator("ricemill-backend", true)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-10)
		doc.SetFont("Helvetica", "I", 7)
		doc.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "R", false, 0, "")
	})
	doc.AddPage()

	pageW, _ := doc.GetPageSize()
	width := pageW - 2*pageMargin

	r.header(doc, tr, s, width)

	section(doc, "Party & Vehicle", width)
	pairs(doc, tr, width, []pair{
		{"Bill No", fmt.Sprint(s.BillNo)},
		{"Date", Date(s.Date)},
		{"Party", orDash(s.PartyName)},
		{"Mobile", orDash(s.MobileNumber)},
		{"Broker", orDash(s.Broker)},
		{"Broker Mobile", orDash(s.BrokerMobileNumber)},
		{"Vehicle No", orDash(s.VehicleNo)},
		{"Ticket No", orDash(s.TicketNo)},
		{"Material", orDash(s.MaterialName)},
		{"Party GST", orDash(s.GSTNo)},
		{"Sup. Inv. No", orDash(s.SupInvNo)},
		{"Unloading Godown", orDash(s.PaddyUnloadingGodown)},
	})

	section(doc, "Weight & Rate", width)
	pairs(doc, tr, width, []pair{
		{"Bags", Qty(s.Bags)},
		{"Net Weight (kg)", Qty(s.NetWeightKg)},
		{"Gunny Weight (kg)", Qty(s.GunnyWeightKg)},
		{"Final Weight (kg)", Qty(s.FinalWeightKg)},
		{"Weight (Quintal)", Qty(s.WeightQuintal)},
		{"Weight (Khandi)", Qty(s.WeightKhandi)},
		{"Avg Bag Weight", Qty(s.AvgBagWeight)},
		{"Rate", fmt.Sprintf("%s %s / %s", currency, Money(s.RateValue), s.RateBasis)},
	})

	section(doc, "Deductions", width)
	pairs(doc, tr, width, []pair{
		{"Bank Commission", Money(s.BankCommission)},
		{"Postage", Money(s.Postage)},
		{fmt.Sprintf("Batav (%s%%)", Qty(s.BatavPercent)), Money(s.Batav)},
		{fmt.Sprintf("Shortage (%s%%)", Qty(s.ShortagePercent)), Money(s.Shortage)},
		{fmt.Sprintf("Dalali (@ %s)", Qty(s.DalaliRate)), Money(s.Dalali)},
		{fmt.Sprintf("Hammali (@ %s)", Qty(s.HammaliRate)), Money(s.Hammali)},
		{"Freight", Money(s.Freight)},
		{"Rate Diff", Money(s.RateDiff)},
		{"Quality Diff", Money(s.QualityDiff)},
		{"Moisture Ded", Money(s.MoistureDed)},
		{"TDS", Money(s.TDS)},
	})
	if c := strings.TrimSpace(s.QualityDiffComment + " " + s.MoistureDedComment); c != "" {
		doc.SetFont("Helvetica", "I", 8)
		doc.MultiCell(width, 4, tr("Note: "+c), "", "L", false)
	}

	section(doc, "Amount", width)
	totals(doc, tr, width, []pair{
		{"Total Purchase Amount", Money(s.TotalPurchaseAmount)},
		{"Total Deduction", Money(s.TotalDeduction)},
		{"Payable Amount", Money(s.PayableAmount)},
		{"Total Paid", Money(s.TotalPaidAmount)},
		{"Balance", Money(s.BalanceAmount)},
	})

	instalments(doc, tr, width, s)

	if s.PaymentDueDate != nil || s.PaymentDueComment != "" {
		doc.Ln(2)
		doc.SetFont("Helvetica", "", 9)
		doc.MultiCell(width, 5, tr(fmt.Sprintf("Payment due: %s %s", DatePtr(s.PaymentDueDate), s.PaymentDueComment)), "", "L", false)
	}
	if s.TermsOfDelivery != "" {
		doc.SetFont("Helvetica", "", 8)
		doc.MultiCell(width, 4, tr("Terms of delivery: "+s.TermsOfDelivery), "", "L", false)
	}

	doc.Ln(12)
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(width/2, rowHeight, tr("Prepared by: "+s.PreparedBy), "T", 0, "L", false, 0, "")
	doc.CellFormat(width/2, rowHeight, tr("Authorised sign: "+s.AuthorisedSign), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render slip %d: %w", s.ID, err)
	}
	return buf.Bytes(), nil
}

// drawLogo places the logo in the top left corner and returns its height.
func (r *FPDF) drawLogo(doc *fpdf.Fpdf) (float64, bool) {
	if r.logoPath == "" {
		return 0, false
	}
	if _, err := os.Stat(r.logoPath); err != nil {
		return 0, false
	}
	opts := fpdf.ImageOptions{ReadDpi: true}
	info := doc.RegisterImageOptions(r.logoPath, opts)
	if doc.Err() || info == nil || info.Width() == 0 {
		doc.ClearError()
		return 0, false
	}
	doc.ImageOptions(r.logoPath, pageMargin, pageMargin, logoWidth, 0, false, opts, 0, "")
	return logoWidth * info.Height() / info.Width(), true
}

func (r *FPDF) header(doc *fpdf.Fpdf, tr func(string) string, s *models.PurchaseSlipView, width float64) {
	logoH, hasLogo := r.drawLogo(doc)
	textW := width
	if hasLogo {
		// company lines stay centred between equal insets clear of the logo
		inset := logoWidth + logoGap
		doc.SetLeftMargin(pageMargin + inset)
		doc.SetRightMargin(pageMargin + inset)
		doc.SetX(pageMargin + inset)
		textW = width - 2*inset
	}

	doc.SetFont("Helvetica", "B", 15)
	doc.CellFormat(textW, 8, tr(orDash(s.CompanyName)), "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	if s.CompanyAddress != "" {
		doc.MultiCell(textW, 4.5, tr(s.CompanyAddress), "", "C", false)
	}
	var contact []string
	if s.CompanyGSTNo != "" {
		contact = append(contact, "GSTIN: "+s.CompanyGSTNo)
	}
	if s.CompanyMobileNo != "" {
		contact = append(contact, "Mob: "+s.CompanyMobileNo)
	}
	if len(contact) > 0 {
		doc.CellFormat(textW, 4.5, tr(strings.Join(contact, "   ")), "", 1, "C", false, 0, "")
	}

	if hasLogo {
		doc.SetLeftMargin(pageMargin)
		doc.SetRightMargin(pageMargin)
		doc.SetY(max(doc.GetY(), pageMargin+logoH))
	}

	doc.Ln(2)
	doc.SetFillColor(40, 40, 40)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(width, 7, tr(strings.ToUpper(s.DocumentType)), "", 1, "C", true, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(2)
}

func section(doc *fpdf.Fpdf, title string, width float64) {
	doc.Ln(1)
	doc.SetFont("Helvetica", "B", 9.5)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(width, rowHeight, title, "1", 1, "L", true, 0, "")
}

// pairs lays label/value pairs out two per row.
func pairs(doc *fpdf.Fpdf, tr func(string) string, width float64, items []pair) {
	labelW, valueW := width*0.2, width*0.3
	for i, p := range items {
		ln := 0
		if i%2 == 1 || i == len(items)-1 {
			ln = 1
		}
		doc.SetFont("Helvetica", "B", 8.5)
		doc.CellFormat(labelW, rowHeight, tr(p.label), "1", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 8.5)
		w := valueW
		if i%2 == 0 && i == len(items)-1 {
			w = width - labelW
		}
		doc.CellFormat(w, rowHeight, tr(p.value), "1", ln, "L", false, 0, "")
	}
}

func totals(doc *fpdf.Fpdf, tr func(string) string, width float64, items []pair) {
	for _, p := range items {
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(width*0.6, rowHeight, tr(p.label), "1", 0, "R", false, 0, "")
		doc.CellFormat(width*0.4, rowHeight, tr(currency+" "+p.value), "1", 1, "R", false, 0, "")
	}
}

func instalments(doc *fpdf.Fpdf, tr func(string) string, width float64, s *models.PurchaseSlipView) {
	var paid []models.Instalment
	for _, in := range s.Instalments() {
		if in.Paid() {
			paid = append(paid, in)
		}
	}
	if len(paid) == 0 {
		return
	}

	section(doc, "Payments", width)
	cols := []struct {
		title string
		w     float64
	}{
		{"#", 0.06}, {"Date", 0.2}, {"Amount", 0.17}, {"Method", 0.17}, {"Bank Account", 0.2}, {"Comment", 0.2},
	}
	doc.SetFont("Helvetica", "B", 8.5)
	for _, c := range cols {
		doc.CellFormat(width*c.w, rowHeight, c.title, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 8.5)
	for _, in := range paid {
		values := []string{
			fmt.Sprint(in.N), DatePtr(in.Date), Money(in.Amount), in.Method, in.BankAccount, in.Comment,
		}
		for i, c := range cols {
			align := "L"
			if i == 2 {
				align = "R"
			}
			doc.CellFormat(width*c.w, rowHeight, tr(values[i]), "1", 0, align, false, 0, "")
		}
		doc.Ln(-1)
	}
}
