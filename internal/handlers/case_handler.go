package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"repair-backend/internal/logger"
	"repair-backend/internal/models"
	"repair-backend/internal/services"
	"repair-backend/pkg/utils"
)

// CaseService is implemented by *services.CaseService.
type CaseService interface {
	CreateCase(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error)
	GetCase(ctx context.Context, id int) (*models.CaseDetail, error)
	GetHistory(ctx context.Context, id int) ([]*models.StatusChange, error)
	ListCases(ctx context.Context, f models.CaseFilter) ([]*models.CaseWithAlarm, error)
	ChangeStatus(ctx context.Context, id int, req *models.UpdateStatusRequest) (*models.CaseDetail, error)
}

type CaseHandler struct {
	Service CaseService
}

func NewCaseHandler(s CaseService) *CaseHandler {
	return &CaseHandler{Service: s}
}

func (h *CaseHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Service.CreateCase(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusCreated, c)
}

func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.GetCase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, detail)
}

func (h *CaseHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	history, err := h.Service.GetHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Ensure we return empty array instead of null
	if history == nil {
		history = []*models.StatusChange{}
	}
	utils.JSON(w, http.StatusOK, history)
}

// ListCases supports ?status=, ?priority=, ?limit= and ?offset=
func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f models.CaseFilter

	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseCaseStatus(raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = status
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := models.ParsePriority(raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Priority = priority
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	cases, err := h.Service.ListCases(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Ensure we return empty array instead of null
	if cases == nil {
		cases = []*models.CaseWithAlarm{}
	}
	utils.JSON(w, http.StatusOK, cases)
}

func (h *CaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	detail, err := h.Service.ChangeStatus(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, detail)
}

func caseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid case ID")
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrCaseNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidCase):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorKV(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
