package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	jobLabel     = "job"
	outcomeLabel = "outcome"
	resultLabel  = "result"
)

// Trigger outcomes
const (
	OutcomeStarted      = "started"
	OutcomeStartTimeout = "start_timeout"
	OutcomeAPIError     = "api_error"
	OutcomeConfigError  = "config_error"
)

var (
	buildTriggerCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samson_jenkins_build_trigger_total",
			Help: "Counter for Jenkins build trigger attempts by outcome",
		},
		[]string{jobLabel, outcomeLabel},
	)
	configUpdateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samson_jenkins_config_update_total",
			Help: "Counter for Jenkins job configs rewritten to declare Samson parameters",
		},
		[]string{jobLabel},
	)
	statusLookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samson_jenkins_status_lookup_total",
			Help: "Counter for Jenkins build status lookups by reported result",
		},
		[]string{resultLabel},
	)
	deployEventCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "samson_jenkins_deploy_event_total",
			Help: "Counter for deploy completion events received",
		},
	)
)

func init() {
	prometheus.MustRegister(buildTriggerCounter)
	prometheus.MustRegister(configUpdateCounter)
	prometheus.MustRegister(statusLookupCounter)
	prometheus.MustRegister(deployEventCounter)
}

// IncreaseBuildTriggerCounter counts a trigger attempt of job with the given outcome
func IncreaseBuildTriggerCounter(job, outcome string) {
	buildTriggerCounter.With(prometheus.Labels{jobLabel: job, outcomeLabel: outcome}).Inc()
}

// IncreaseConfigUpdateCounter counts a config rewrite of job
func IncreaseConfigUpdateCounter(job string) {
	configUpdateCounter.With(prometheus.Labels{jobLabel: job}).Inc()
}

// IncreaseStatusLookupCounter counts a status lookup
func IncreaseStatusLookupCounter(result string) {
	if result == "" {
		result = "unknown"
	}
	statusLookupCounter.With(prometheus.Labels{resultLabel: result}).Inc()
}

// IncreaseDeployEventCounter counts a deploy completion event
func IncreaseDeployEventCounter() {
	deployEventCounter.Inc()
}
