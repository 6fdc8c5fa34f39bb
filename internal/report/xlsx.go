package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

const (
	alarmSheet   = "Alarmer"
	summarySheet = "Oversigt"
)

var alarmColumns = []string{"Sag", "Kunde", "Telefon", "Status", "Prioritet", "Alarm", "Siden", "Hverdage", "Max", "Besked"}

// BuildAlarmXLSX renders the alarm list with one row per case and a summary
// sheet counting alarms per rule.
func BuildAlarmXLSX(alarms []*models.CaseAlarm, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", alarmSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, title := range alarmColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alarmSheet, cell, title)
	}
	_ = f.SetCellStyle(alarmSheet, "A1", "J1", bold)

	byRule := make(map[string]int)
	for i, a := range alarms {
		row := i + 2
		values := []any{
			a.Case.CaseNumber,
			a.Case.CustomerName,
			a.Case.CustomerPhone,
			string(a.Case.Status),
			string(a.Case.Priority),
			ruleLabel(a.Rule),
			timeutil.ToZone(a.Since).Format(timeutil.DisplayLayout),
			a.BusinessDays,
			a.MaxBusinessDays,
			a.Message,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(alarmSheet, cell, v)
		}
		byRule[a.Rule]++
	}
	_ = f.SetColWidth(alarmSheet, "A", "B", 18)
	_ = f.SetColWidth(alarmSheet, "F", "G", 20)
	_ = f.SetColWidth(alarmSheet, "J", "J", 60)

	_ = f.SetCellValue(summarySheet, "A1", "Sager i alarm")
	_ = f.SetCellStyle(summarySheet, "A1", "A1", bold)
	_ = f.SetCellValue(summarySheet, "A2", "Genereret")
	_ = f.SetCellValue(summarySheet, "B2", timeutil.ToZone(generatedAt).Format(timeutil.DisplayLayout))
	_ = f.SetCellValue(summarySheet, "A3", "Antal")
	_ = f.SetCellValue(summarySheet, "B3", len(alarms))

	row := 5
	for _, r := range alarm.Rules {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), ruleLabel(string(r.Kind)))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), byRule[string(r.Kind)])
		row++
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
