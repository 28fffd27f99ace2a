package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
	"github.com/ternarybob/narrato/internal/services/orchestrator"
)

// JobHandler exposes job submission and status over HTTP
type JobHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       arbor.ILogger
}

// NewJobHandler creates a job handler
func NewJobHandler(orch *orchestrator.Orchestrator, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		orchestrator: orch,
		logger:       logger,
	}
}

// SubmitHandler handles POST /api/jobs
func (h *JobHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.orchestrator.Submit(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, interfaces.ErrInsufficientCredit):
			WriteError(w, http.StatusPaymentRequired, err.Error())
		default:
			h.logger.Error().Err(err).Msg("Job submission failed")
			WriteError(w, http.StatusInternalServerError, "submission failed")
		}
		return
	}

	WriteJSON(w, http.StatusAccepted, resp)
}

// StatusHandler handles GET /api/jobs/{id}
func (h *JobHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	view, err := h.orchestrator.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Status lookup failed")
		WriteError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// ListHandler handles GET /api/jobs
func (h *JobHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetLimitOffset(r)
	opts := &interfaces.JobListOptions{
		Status:  r.URL.Query().Get("status"),
		OwnerID: r.URL.Query().Get("ownerId"),
		Limit:   limit,
		Offset:  offset,
	}

	jobs, err := h.orchestrator.ListJobs(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Job listing failed")
		WriteError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	views := make([]models.JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.View())
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  views,
		"count": len(views),
	})
}
