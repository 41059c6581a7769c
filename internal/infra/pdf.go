package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"inventorypro/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateShiftReportPDF renders the close-of-shift report (A4) into
// storagePath/shift_<id>.pdf and returns the file path.
func GenerateShiftReportPDF(sc *model.ShiftClose, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("shift_%s.pdf", sc.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30
	labelW := contentW * 0.6
	valueW := contentW - labelW

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, storeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Shift close report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	row := func(label, value string) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}
	money := func(d decimal.Decimal) string { return "$" + d.StringFixed(2) }
	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}

	row("Cashier", sc.UserName)
	row("Opened", sc.StartTime.Format("2006-01-02 15:04"))
	row("Closed", sc.EndTime.Format("2006-01-02 15:04"))
	row("Duration", fmt.Sprintf("%d min", sc.DurationMinutes))

	// ── Activity ──────────────────────────────────────────────────────────────
	section("Activity")
	row("Transactions", fmt.Sprintf("%d", sc.Transactions))
	row("Products sold", fmt.Sprintf("%d", sc.ProductsSold))
	row("Credits created", fmt.Sprintf("%d", sc.CreditsCreated))
	row("Credit payments received", fmt.Sprintf("%d", sc.PaymentsReceived))
	row("Total sales", money(sc.TotalSales))
	for _, m := range model.PaymentMethods {
		row("  "+string(m), money(sc.SalesByMethod[m]))
	}
	row("Total expenses", money(sc.TotalExpenses))
	row("Total credit payments", money(sc.TotalPayments))

	// ── Cash drawer ───────────────────────────────────────────────────────────
	section("Cash drawer")
	row("Initial cash", money(sc.InitialCash))
	row("+ Cash sales", money(sc.CashSales))
	row("+ Cash credit payments", money(sc.CashPayments))
	row("+ Paid in", money(sc.TotalPaidIn()))
	row("- Cash expenses", money(sc.CashExpenses))
	row("- Paid out", money(sc.TotalPaidOut()))
	pdf.SetFont("Helvetica", "B", 10)
	row("Expected cash", money(sc.ExpectedCash))
	row("Counted cash", money(sc.RealCash))
	row("Difference", fmt.Sprintf("%s (%s%%, %s)", money(sc.Difference), sc.DifferencePct.StringFixed(2), sc.Classification))
	pdf.SetFont("Helvetica", "", 9)

	if len(sc.PaidIns)+len(sc.PaidOuts) > 0 {
		section("Cash movements")
		for _, m := range sc.PaidIns {
			row(fmt.Sprintf("IN  %s (%s)", m.Description, m.AuthorizedBy), money(m.Amount))
		}
		for _, m := range sc.PaidOuts {
			row(fmt.Sprintf("OUT %s (%s)", m.Description, m.AuthorizedBy), money(m.Amount))
		}
	}

	if len(sc.Refunds) > 0 {
		section("Refunds")
		for _, r := range sc.Refunds {
			row(fmt.Sprintf("%s (%s, %s)", r.Reason, r.Method, r.AuthorizedBy), money(r.Total))
		}
	}

	if sc.Justification != "" || sc.NotesForNext != "" {
		section("Notes")
		if sc.Justification != "" {
			pdf.MultiCell(contentW, 5, "Justification: "+sc.Justification, "", "L", false)
		}
		if sc.NotesForNext != "" {
			pdf.MultiCell(contentW, 5, "For next shift: "+sc.NotesForNext, "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
