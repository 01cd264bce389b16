package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NotFoundMessage is the message Jenkins API clients report for a missing
// job, build or queue item.
const NotFoundMessage = "Requested component is not found on the Jenkins CI server."

// ErrNotFound is returned when the CI server answers 404.
var ErrNotFound = errors.New(NotFoundMessage)

// APIError is a non-2xx answer from the CI server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is makes a 404 APIError match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// StartTimeoutError reports a build that did not leave the queue within its
// start budget.
type StartTimeoutError struct {
	JobName string
	Timeout time.Duration
}

func (e *StartTimeoutError) Error() string {
	return fmt.Sprintf("build of %s did not start within %s", e.JobName, e.Timeout)
}

// Build is the detail of a single CI build
type Build struct {
	Number   int    `json:"number"`
	URL      string `json:"url"`
	Result   string `json:"result"`
	Building bool   `json:"building"`
}

// CIEngine is an interface for CI engines
type CIEngine interface {
	// TriggerBuild submits a build and waits up to startTimeout for it to
	// leave the queue, returning the build number.
	TriggerBuild(ctx context.Context, jobName string, params map[string]string, startTimeout time.Duration) (int, error)

	// GetBuild returns the detail of a build
	GetBuild(ctx context.Context, jobName string, number int) (*Build, error)

	// GetJobConfig returns the raw XML configuration of a job
	GetJobConfig(ctx context.Context, jobName string) (string, error)

	// PostJobConfig replaces the XML configuration of a job
	PostJobConfig(ctx context.Context, jobName string, xml string) error
}
