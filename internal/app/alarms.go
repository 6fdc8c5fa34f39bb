package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// WriteAlarms prints the current alarm list, as a table or as JSON.
func (a *App) WriteAlarms(ctx context.Context, w io.Writer, asJSON bool) error {
	alarms, err := a.AlarmService.Compute(ctx)
	if err != nil {
		return err
	}
	return WriteAlarmTable(w, alarms, asJSON)
}

// WriteAlarmTable renders alarms to w.
func WriteAlarmTable(w io.Writer, alarms []*models.CaseAlarm, asJSON bool) error {
	if asJSON {
		if alarms == nil {
			alarms = []*models.CaseAlarm{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(alarms)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tCUSTOMER\tSTATUS\tSINCE\tDAYS\tMESSAGE")
	for _, a := range alarms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			a.Case.CaseNumber,
			a.Case.CustomerName,
			a.Case.Status,
			timeutil.ToZone(a.Since).Format(timeutil.DisplayLayout),
			a.BusinessDays, a.MaxBusinessDays,
			a.Message,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d case(s) in alarm\n", len(alarms))
	return err
}
