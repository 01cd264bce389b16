package jenkinsjob

import (
	"context"
	"errors"
	"sync"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/metrics"
	"samsonjenkins/internal/storage/models"
)

// NotFoundURL is reported for builds Jenkins no longer knows about
const NotFoundURL = "#"

// Status looks up a triggered build on demand. The detail is fetched once
// per Status and kept for its lifetime; nothing is written back.
type Status struct {
	ci      engine.CIEngine
	jobName string
	runID   int

	mu    sync.Mutex
	build *engine.Build
}

// NewStatus creates a Status for build runID of jobName
func NewStatus(ci engine.CIEngine, jobName string, runID int) *Status {
	return &Status{ci: ci, jobName: jobName, runID: runID}
}

// Result is the Jenkins build result, e.g. SUCCESS or FAILURE. It is empty
// while the build runs.
func (s *Status) Result(ctx context.Context) (string, error) {
	build, err := s.detail(ctx)
	if err != nil {
		return "", err
	}
	return build.Result, nil
}

// URL is the browsable URL of the build
func (s *Status) URL(ctx context.Context) (string, error) {
	build, err := s.detail(ctx)
	if err != nil {
		return "", err
	}
	return build.URL, nil
}

// Building reports whether the build is still running
func (s *Status) Building(ctx context.Context) (bool, error) {
	build, err := s.detail(ctx)
	if err != nil {
		return false, err
	}
	return build.Building, nil
}

func (s *Status) detail(ctx context.Context) (*engine.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.build != nil {
		return s.build, nil
	}

	build, err := s.ci.GetBuild(ctx, s.jobName, s.runID)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		build = &engine.Build{Number: s.runID, Result: engine.NotFoundMessage, URL: NotFoundURL}
	case err != nil:
		return nil, err
	}

	metrics.IncreaseStatusLookupCounter(build.Result)
	s.build = build
	return build, nil
}

// Report is the current state of a recorded job run
type Report struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	DeployID  int64  `json:"deploy_id"`
	JenkinsID *int   `json:"jenkins_job_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	Result    string `json:"result,omitempty"`
	URL       string `json:"url,omitempty"`
	Building  bool   `json:"building"`
}

// Lookup reports the state of run. Jenkins is only asked about runs whose
// build started.
func Lookup(ctx context.Context, ci engine.CIEngine, run models.JobRun) (Report, error) {
	report := Report{
		ID:        run.ID,
		Name:      run.Name,
		DeployID:  run.DeployID,
		JenkinsID: run.JenkinsID,
		Status:    run.Status,
		Error:     run.Error,
		URL:       run.URL,
	}
	if !run.Started() {
		return report, nil
	}

	status := NewStatus(ci, run.Name, *run.JenkinsID)
	var err error
	if report.Result, err = status.Result(ctx); err != nil {
		return Report{}, err
	}
	if report.URL, err = status.URL(ctx); err != nil {
		return Report{}, err
	}
	if report.Building, err = status.Building(ctx); err != nil {
		return Report{}, err
	}
	return report, nil
}
