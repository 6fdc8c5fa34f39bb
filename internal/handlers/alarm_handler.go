package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"repair-backend/internal/logger"
	"repair-backend/internal/models"
	"repair-backend/internal/report"
	"repair-backend/internal/timeutil"
	"repair-backend/pkg/utils"
)

// AlarmService is implemented by *services.AlarmService.
type AlarmService interface {
	ListAlarms(ctx context.Context) ([]*models.CaseAlarm, error)
	CountAlarms(ctx context.Context) (int, error)
	Summary(ctx context.Context) (*models.AlarmSummary, error)
}

// ReportArchiver is implemented by *report.Archiver.
type ReportArchiver interface {
	Archive(ctx context.Context, f report.Format, data []byte, generatedAt time.Time) (string, error)
}

type AlarmHandler struct {
	Service  AlarmService
	archiver ReportArchiver
	now      func() time.Time
}

func NewAlarmHandler(s AlarmService) *AlarmHandler {
	return &AlarmHandler{Service: s, now: timeutil.Now}
}

// SetArchiver enables ?archive=true on the report endpoint
func (h *AlarmHandler) SetArchiver(a ReportArchiver) {
	h.archiver = a
}

func (h *AlarmHandler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Service.ListAlarms(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Ensure we return empty array instead of null
	if alarms == nil {
		alarms = []*models.CaseAlarm{}
	}
	utils.JSON(w, http.StatusOK, alarms)
}

func (h *AlarmHandler) CountAlarms(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.CountAlarms(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *AlarmHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}

// Report renders the alarm list as ?format=pdf (default) or ?format=xlsx.
// With ?archive=true the file is also uploaded to report storage.
func (h *AlarmHandler) Report(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	archive, _ := strconv.ParseBool(r.URL.Query().Get("archive"))
	if archive && h.archiver == nil {
		utils.Error(w, http.StatusBadRequest, "Report archiving is not configured")
		return
	}

	alarms, err := h.Service.ListAlarms(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	generatedAt := h.now()
	data, err := report.Render(format, alarms, generatedAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if archive {
		key, err := h.archiver.Archive(r.Context(), format, data, generatedAt)
		if err != nil {
			logger.ErrorKV(r.Context(), "Report archive failed", "error", err)
			utils.Error(w, http.StatusBadGateway, "Failed to archive report")
			return
		}
		w.Header().Set("X-Report-Key", key)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(generatedAt)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
