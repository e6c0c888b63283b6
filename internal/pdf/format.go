package pdf

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// Filename is Purchase_Slip_<party>_<bill>.pdf with the party reduced to
// letters, digits, space, '_' and '-', and spaces turned into underscores.
func Filename(s *models.PurchaseSlip) string {
	party := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			return r
		}
		return -1
	}, s.PartyName)
	party = strings.ReplaceAll(strings.TrimSpace(party), " ", "_")
	if party == "" {
		party = "Unknown"
	}
	return fmt.Sprintf("Purchase_Slip_%s_%d.pdf", party, s.BillNo)
}

// Money renders v with two decimals and Indian digit grouping (12,34,567.89).
func Money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		whole = strings.Join(groups, ",") + "," + tail
	}

	out := whole + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// Qty renders a weight or count without trailing zeros, up to three decimals.
func Qty(v float64) string {
	return decimal.NewFromFloat(v).Round(3).String()
}

func Date(t time.Time) string {
	return timeutil.Format(t)
}

func DatePtr(t *time.Time) string {
	return timeutil.FormatPtr(t)
}

// orDash keeps empty cells visibly empty on the printed slip.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
