package jenkinsjob

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/jobconfig"
	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/metrics"
)

// OutcomeKind classifies a trigger attempt
type OutcomeKind string

const (
	Started      OutcomeKind = "started"
	StartTimeout OutcomeKind = "start_timeout"
	APIFailure   OutcomeKind = "api_error"
)

// Outcome is the result of one trigger attempt: a Jenkins build number when
// the build started, a descriptive message otherwise.
type Outcome struct {
	Kind    OutcomeKind
	RunID   int
	Message string
}

// Started reports whether Jenkins started the build
func (o Outcome) Started() bool {
	return o.Kind == Started
}

// Configurator prepares a job before it is triggered
type Configurator interface {
	Configure(ctx context.Context, jobName, project, stage string) (bool, error)
}

// Trigger starts Jenkins builds for deploys
type Trigger struct {
	ci           engine.CIEngine
	configurator Configurator
	startTimeout time.Duration
	emailDomain  string
}

// NewTrigger creates a Trigger. configurator may be nil when jobs are never
// auto-configured.
func NewTrigger(ci engine.CIEngine, configurator Configurator, startTimeout time.Duration, emailDomain string) *Trigger {
	return &Trigger{
		ci:           ci,
		configurator: configurator,
		startTimeout: startTimeout,
		emailDomain:  emailDomain,
	}
}

// Params returns the unprefixed build parameters for d
func (t *Trigger) Params(d Deploy) map[string]string {
	return map[string]string{
		"buildStartedBy": d.UserName,
		"originatedFrom": d.OriginatedFrom(),
		"commit":         d.Commit,
		"tag":            d.Tag,
		"deployUrl":      d.URL,
		"emails":         strings.Join(Emails(d, t.emailDomain), ","),
	}
}

// Build triggers jobName for d. Failures to start the build come back as an
// Outcome; the error result is reserved for failures to read or update the
// job configuration, in which case no build was submitted.
func (t *Trigger) Build(ctx context.Context, jobName string, d Deploy, autoConfigure bool) (Outcome, error) {
	params := t.Params(d)

	if autoConfigure {
		if t.configurator != nil {
			changed, err := t.configurator.Configure(ctx, jobName, d.Project, d.Stage)
			if err != nil {
				metrics.IncreaseBuildTriggerCounter(jobName, metrics.OutcomeConfigError)
				return Outcome{}, err
			}
			if changed {
				metrics.IncreaseConfigUpdateCounter(jobName)
			}
		}
		// jobs only receive parameters they declare
		params = prefixed(params)
	}

	number, err := t.ci.TriggerBuild(ctx, jobName, params, t.startTimeout)
	switch {
	case err == nil:
		logger.Info("Jenkins build started", "job", jobName, "build", number, "deploy_id", d.ID)
		metrics.IncreaseBuildTriggerCounter(jobName, metrics.OutcomeStarted)
		return Outcome{Kind: Started, RunID: number}, nil
	case isTimeout(err):
		logger.Warn("Jenkins build failed to start in time", "job", jobName, "deploy_id", d.ID, "error", err)
		metrics.IncreaseBuildTriggerCounter(jobName, metrics.OutcomeStartTimeout)
		return Outcome{
			Kind:    StartTimeout,
			Message: fmt.Sprintf("Jenkins '%s' build failed to start in a timely manner. %T %v", jobName, err, err),
		}, nil
	default:
		logger.Error("Jenkins build failed to start", "job", jobName, "deploy_id", d.ID, "error", err)
		metrics.IncreaseBuildTriggerCounter(jobName, metrics.OutcomeAPIError)
		return Outcome{
			Kind:    APIFailure,
			Message: fmt.Sprintf("Problem while waiting for '%s' to start. %T %v", jobName, err, err),
		}, nil
	}
}

func prefixed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[jobconfig.ParamPrefix+k] = v
	}
	return out
}

func isTimeout(err error) bool {
	var startErr *engine.StartTimeoutError
	if errors.As(err, &startErr) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
