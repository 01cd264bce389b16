package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"samsonjenkins/internal/api/middleware"
	"samsonjenkins/internal/jenkinsjob"
	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/storage/models"
)

const (
	maxJobNameLength = 255
	maxJobsPerDeploy = 100
)

// Deployer triggers the jobs of a finished deploy
type Deployer interface {
	Deployed(ctx context.Context, d jenkinsjob.Deploy) ([]models.JobRun, error)
}

// DeployLister lists the records of a deploy
type DeployLister interface {
	ListJobRunsByDeploy(ctx context.Context, deployID int64) ([]models.JobRun, error)
}

// DeployHandler handles deploy-completion events
type DeployHandler struct {
	deployer Deployer
	store    DeployLister
}

// NewDeployHandler creates a new DeployHandler instance
func NewDeployHandler(deployer Deployer, store DeployLister) *DeployHandler {
	return &DeployHandler{deployer: deployer, store: store}
}

// DeployResponse is returned once all jobs of a deploy were attempted
type DeployResponse struct {
	DeployID int64           `json:"deploy_id"`
	JobRuns  []models.JobRun `json:"job_runs"`
	Error    string          `json:"error,omitempty"`
}

// CreateDeploy handles POST /api/v1/deploys
func (h *DeployHandler) CreateDeploy(w http.ResponseWriter, r *http.Request) {
	var d jenkinsjob.Deploy
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		logger.Warn("Failed to parse deploy event", "error", err, "request_id", middleware.GetRequestID(r))
		writeErrorWithRequestID(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := validateDeploy(d); msg != "" {
		writeErrorWithRequestID(w, r, http.StatusBadRequest, msg)
		return
	}

	logger.Info("Deploy finished", "deploy_id", d.ID, "project", d.Project, "stage", d.Stage,
		"jobs", len(d.AllJobNames()), "request_id", middleware.GetRequestID(r))

	runs, err := h.deployer.Deployed(r.Context(), d)
	resp := DeployResponse{DeployID: d.ID, JobRuns: runs}
	if resp.JobRuns == nil {
		resp.JobRuns = []models.JobRun{}
	}
	if err != nil {
		logger.Error("Deploy jobs finished with errors", "deploy_id", d.ID, "error", err)
		resp.Error = err.Error()
		if len(runs) == 0 && len(d.AllJobNames()) > 0 {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListDeployJobs handles GET /api/v1/deploys/{deployID}/jobs
func (h *DeployHandler) ListDeployJobs(w http.ResponseWriter, r *http.Request) {
	deployID, err := strconv.ParseInt(chi.URLParam(r, "deployID"), 10, 64)
	if err != nil || deployID <= 0 {
		writeErrorWithRequestID(w, r, http.StatusBadRequest, "Invalid deploy id")
		return
	}

	runs, err := h.store.ListJobRunsByDeploy(r.Context(), deployID)
	if err != nil {
		logger.Error("Failed to list job runs", "deploy_id", deployID, "error", err)
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, "Failed to list job runs")
		return
	}
	if runs == nil {
		runs = []models.JobRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func validateDeploy(d jenkinsjob.Deploy) string {
	switch {
	case d.ID <= 0:
		return "Deploy id is required"
	case d.Project == "" || d.Stage == "":
		return "Project and stage are required"
	case len(d.AllJobNames()) > maxJobsPerDeploy:
		return fmt.Sprintf("Maximum %d jobs allowed", maxJobsPerDeploy)
	}
	for _, name := range d.JobNames {
		if name == "" {
			return "Job names must not be empty"
		}
	}
	for _, name := range d.AllJobNames() {
		if len(name) > maxJobNameLength {
			return fmt.Sprintf("Job name exceeds maximum length of %d characters", maxJobNameLength)
		}
	}
	return ""
}
