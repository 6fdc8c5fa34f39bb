package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// BuildAlarmPDF renders the alarm list as a landscape A4 table.
func BuildAlarmPDF(alarms []*models.CaseAlarm, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	// core fonts are cp1252; translate so æ, ø and å survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, tr("Sager i alarm"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, tr(fmt.Sprintf("Genereret: %s  |  Antal: %d",
		timeutil.ToZone(generatedAt).Format(timeutil.DisplayLayout), len(alarms))), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(30, 7, "Sag", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Kunde", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Alarm", "1", 0, "C", true, 0, "")
		pdf.CellFormat(32, 7, tr("Siden"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 7, "Hverdage", "1", 0, "C", true, 0, "")
		pdf.CellFormat(105, 7, "Besked", "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 9)
	}
	header()

	if len(alarms) == 0 {
		pdf.CellFormat(277, 8, tr("Ingen sager i alarm"), "1", 1, "C", false, 0, "")
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, a := range alarms {
		if pdf.GetY()+6 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		if i%2 == 1 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(30, 6, tr(a.Case.CaseNumber), "1", 0, "L", true, 0, "")
		pdf.CellFormat(50, 6, tr(truncate(a.Case.CustomerName, 28)), "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 6, tr(ruleLabel(a.Rule)), "1", 0, "L", true, 0, "")
		pdf.CellFormat(32, 6, timeutil.ToZone(a.Since).Format(timeutil.DisplayLayout), "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d / %d", a.BusinessDays, a.MaxBusinessDays), "1", 0, "C", true, 0, "")
		pdf.CellFormat(105, 6, tr(truncate(a.Message, 64)), "1", 1, "L", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
