package models

import (
	"time"
)

// StatusStartupError marks a record whose build never started
const StatusStartupError = "STARTUP_ERROR"

// MaxErrorLength is the longest error message stored on a record
const MaxErrorLength = 255

// JobRun records one attempt at triggering a Jenkins job for a deploy
type JobRun struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DeployID  int64     `json:"deploy_id"`
	JenkinsID *int      `json:"jenkins_job_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Started reports whether Jenkins accepted the build
func (j JobRun) Started() bool {
	return j.JenkinsID != nil
}

// TruncateError cuts msg to MaxErrorLength characters
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= MaxErrorLength {
		return msg
	}
	return string(runes[:MaxErrorLength])
}
