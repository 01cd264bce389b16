package jenkinsjob

import (
	"context"
	"errors"
	"fmt"

	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/metrics"
	"samsonjenkins/internal/storage/models"
)

// Store persists job-run records
type Store interface {
	CreateJobRun(ctx context.Context, run *models.JobRun) error
}

// Builder triggers one job for a deploy
type Builder interface {
	Build(ctx context.Context, jobName string, d Deploy, autoConfigure bool) (Outcome, error)
}

// Runner triggers every job of a deploy and records each attempt
type Runner struct {
	builder Builder
	store   Store
}

// NewRunner creates a Runner
func NewRunner(builder Builder, store Store) *Runner {
	return &Runner{builder: builder, store: store}
}

// Deployed triggers the jobs of d one after the other. Each attempt that
// reached Jenkins yields exactly one record; a failing job does not stop the
// following ones. Errors of all jobs are joined into the returned error.
//
// Cancellation of ctx is ignored: once a deploy has finished every job is
// attempted. Each submission is bounded by the trigger's start timeout.
func (r *Runner) Deployed(ctx context.Context, d Deploy) ([]models.JobRun, error) {
	metrics.IncreaseDeployEventCounter()
	ctx = context.WithoutCancel(ctx)

	var (
		runs []models.JobRun
		errs []error
	)
	for _, jobName := range d.AllJobNames() {
		outcome, err := r.builder.Build(ctx, jobName, d, d.AutoConfigure)
		if err != nil {
			logger.Error("Failed to configure Jenkins job", "job", jobName, "deploy_id", d.ID, "error", err)
			errs = append(errs, fmt.Errorf("configure %s: %w", jobName, err))
			continue
		}

		run := NewJobRun(jobName, d.ID, outcome)
		if err := r.store.CreateJobRun(ctx, &run); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", jobName, err))
			continue
		}
		runs = append(runs, run)
	}

	return runs, errors.Join(errs...)
}

// NewJobRun converts an outcome into the record persisted for it
func NewJobRun(jobName string, deployID int64, outcome Outcome) models.JobRun {
	run := models.JobRun{Name: jobName, DeployID: deployID}
	if outcome.Started() {
		id := outcome.RunID
		run.JenkinsID = &id
		return run
	}
	run.Status = models.StatusStartupError
	run.Error = models.TruncateError(outcome.Message)
	return run
}
