package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/jenkinsjob"
	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/storage"
	"samsonjenkins/internal/storage/models"
)

// JobRunStore reads job-run records
type JobRunStore interface {
	GetJobRun(ctx context.Context, id int64) (*models.JobRun, error)
	ListJobRuns(ctx context.Context, limit, offset int) ([]models.JobRun, error)
}

// JobHandler serves job-run records and their live Jenkins status
type JobHandler struct {
	store JobRunStore
	ci    engine.CIEngine
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(store JobRunStore, ci engine.CIEngine) *JobHandler {
	return &JobHandler{store: store, ci: ci}
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	runs, err := h.store.ListJobRuns(r.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list job runs", "error", err)
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, "Failed to list job runs")
		return
	}
	if runs == nil {
		runs = []models.JobRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetJobStatus handles GET /api/v1/jobs/{id}/status
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorWithRequestID(w, r, http.StatusBadRequest, "Invalid job id")
		return
	}

	run, err := h.store.GetJobRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeErrorWithRequestID(w, r, http.StatusNotFound, "Job run not found")
		return
	}
	if err != nil {
		logger.Error("Failed to load job run", "id", id, "error", err)
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, "Failed to load job run")
		return
	}

	report, err := jenkinsjob.Lookup(r.Context(), h.ci, *run)
	if err != nil {
		logger.Error("Failed to fetch Jenkins build", "id", id, "job", run.Name, "error", err)
		writeErrorWithRequestID(w, r, http.StatusBadGateway, "Failed to fetch build status from Jenkins")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
