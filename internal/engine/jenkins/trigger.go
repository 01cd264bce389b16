package jenkins

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/logger"
)

// queueItem is the part of /queue/item/<n>/api/json we need
type queueItem struct {
	Cancelled  bool   `json:"cancelled"`
	Why        string `json:"why"`
	Executable *struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	} `json:"executable"`
}

// Trigger implements the CIEngine interface for Jenkins
type Trigger struct {
	client *Client
}

var _ engine.CIEngine = (*Trigger)(nil)

// NewTrigger creates a new Jenkins trigger instance
func NewTrigger(client *Client) *Trigger {
	return &Trigger{
		client: client,
	}
}

// TriggerBuild queues a build and polls the queue item until Jenkins assigns
// a build number. startTimeout bounds the whole submission, queue polling
// included.
func (t *Trigger) TriggerBuild(ctx context.Context, jobName string, params map[string]string, startTimeout time.Duration) (int, error) {
	path, err := jobPath(jobName)
	if err != nil {
		return 0, err
	}

	if startTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, startTimeout)
		defer cancel()
	}

	// For non-parameterized builds Jenkins Stapler expects a "json" field
	formData := url.Values{}
	if len(params) > 0 {
		path += "/buildWithParameters"
		for k, v := range params {
			formData.Set(k, v)
		}
	} else {
		path += "/build"
		formData.Set("json", "{}")
	}

	_, header, err := t.client.doRequest(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(formData.Encode()))
	if err != nil {
		return 0, startError(ctx, jobName, startTimeout, err)
	}

	location := header.Get("Location")
	itemPath, ok := queuePath(location)
	if !ok {
		return 0, &engine.APIError{
			StatusCode: http.StatusCreated,
			Message:    fmt.Sprintf("no queue item returned for %s (location %q)", jobName, location),
		}
	}

	logger.Debug("Build queued", "job", jobName, "queue_item", itemPath)
	number, err := t.waitForBuild(ctx, jobName, itemPath)
	if err != nil {
		return 0, startError(ctx, jobName, startTimeout, err)
	}
	return number, nil
}

func (t *Trigger) waitForBuild(ctx context.Context, jobName, itemPath string) (int, error) {
	ticker := time.NewTicker(t.client.pollInterval)
	defer ticker.Stop()

	for {
		var item queueItem
		if err := t.client.getJSON(ctx, itemPath, &item); err != nil {
			return 0, err
		}
		if item.Cancelled {
			return 0, &engine.APIError{
				StatusCode: http.StatusOK,
				Message:    fmt.Sprintf("queued build of %s was cancelled", jobName),
			}
		}
		if item.Executable != nil && item.Executable.Number > 0 {
			return item.Executable.Number, nil
		}

		logger.Debug("Waiting for build to start", "job", jobName, "why", item.Why)

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// startError reports an exhausted start budget as a StartTimeoutError
func startError(ctx context.Context, jobName string, startTimeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &engine.StartTimeoutError{JobName: jobName, Timeout: startTimeout}
	}
	return err
}

// GetBuild returns the detail of a Jenkins build
func (t *Trigger) GetBuild(ctx context.Context, jobName string, number int) (*engine.Build, error) {
	path, err := jobPath(jobName)
	if err != nil {
		return nil, err
	}
	if number <= 0 {
		return nil, fmt.Errorf("invalid build number: %d", number)
	}

	var build engine.Build
	if err := t.client.getJSON(ctx, fmt.Sprintf("%s/%d/api/json", path, number), &build); err != nil {
		return nil, err
	}

	if build.URL == "" {
		build.URL = fmt.Sprintf("%s%s/%d/", t.client.url, path, number)
	}
	return &build, nil
}

// GetJobConfig returns the config.xml of a job
func (t *Trigger) GetJobConfig(ctx context.Context, jobName string) (string, error) {
	path, err := jobPath(jobName)
	if err != nil {
		return "", err
	}

	body, _, err := t.client.doRequest(ctx, http.MethodGet, path+"/config.xml", "", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJobConfig replaces the config.xml of a job
func (t *Trigger) PostJobConfig(ctx context.Context, jobName string, xml string) error {
	path, err := jobPath(jobName)
	if err != nil {
		return err
	}

	_, _, err = t.client.doRequest(ctx, http.MethodPost, path+"/config.xml", "application/xml", strings.NewReader(xml))
	return err
}
