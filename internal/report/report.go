// Package report renders the alarm list as PDF or XLSX and optionally
// archives the rendered file to S3 compatible storage.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts "pdf" or "xlsx"; empty input means PDF.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Filename returns the download name of a report generated at t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("alarmer_%s.%s", t.Format("20060102_1504"), f)
}

// Render builds the alarm report in the requested format.
func Render(f Format, alarms []*models.CaseAlarm, generatedAt time.Time) ([]byte, error) {
	switch f {
	case FormatPDF:
		return BuildAlarmPDF(alarms, generatedAt)
	case FormatXLSX:
		return BuildAlarmXLSX(alarms, generatedAt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

var ruleLabels = map[string]string{
	string(alarm.RuleNotStarted):       "Ikke påbegyndt",
	string(alarm.RuleInProgress):       "Påbegyndt",
	string(alarm.RuleAwaitingPickup):   "Afventer afhentning",
	string(alarm.RuleAwaitingCustomer): "Afventer kunde",
}

func ruleLabel(rule string) string {
	if label, ok := ruleLabels[rule]; ok {
		return label
	}
	return rule
}
