package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"samsonjenkins/internal/config"
	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/logger"
)

// Client represents a Jenkins API client
type Client struct {
	url          string
	username     string
	token        string
	client       *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
}

// NewClient creates a new Jenkins client instance
func NewClient(cfg config.JenkinsConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second

	// Crumbs are bound to the session on recent Jenkins versions
	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	pollInterval := time.Duration(cfg.PollInterval) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Client{
		url:          strings.TrimSuffix(cfg.URL, "/"),
		username:     cfg.Username,
		token:        cfg.Token,
		client:       client,
		limiter:      limiter,
		pollInterval: pollInterval,
	}
}

// URL returns the Jenkins base URL without trailing slash
func (c *Client) URL() string {
	return c.url
}

// doRequest sends an HTTP request to the Jenkins API. POST requests carry a
// CSRF crumb when Jenkins issues one.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, http.Header, error) {
	fullURL := c.url + path

	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.SetBasicAuth(c.username, c.token)

	if method == http.MethodPost {
		crumbField, crumbValue, err := c.getCrumb(ctx)
		if err != nil {
			logger.Warn("Failed to get CSRF crumb, proceeding without it", "error", err)
		} else if crumbField != "" && crumbValue != "" {
			req.Header.Set(crumbField, crumbValue)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("Jenkins API request failed", "status", resp.Status, "method", method, "url", fullURL)
		return nil, nil, formatJenkinsError(resp.StatusCode)
	}

	return respBody, resp.Header, nil
}

// getJSON fetches path and decodes the JSON answer into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, _, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// getCrumb retrieves the CSRF crumb from Jenkins for POST requests
// Returns the crumb field name and value separately
func (c *Client) getCrumb(ctx context.Context) (string, string, error) {
	if err := c.wait(ctx); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/crumbIssuer/api/json", nil)
	if err != nil {
		return "", "", err
	}
	req.SetBasicAuth(c.username, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to get crumb: %s", resp.Status)
	}

	var crumbData struct {
		Crumb             string `json:"crumb"`
		CrumbRequestField string `json:"crumbRequestField"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&crumbData); err != nil {
		return "", "", err
	}

	crumbField := crumbData.CrumbRequestField
	if crumbField == "" {
		crumbField = "Jenkins-Crumb"
	}

	return crumbField, crumbData.Crumb, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// jobPath builds the URL path of a job, expanding folders:
// "team/deploy" becomes /job/team/job/deploy
func jobPath(jobName string) (string, error) {
	if jobName == "" {
		return "", fmt.Errorf("job name cannot be empty")
	}
	if strings.Contains(jobName, "..") {
		return "", fmt.Errorf("invalid job name format: %s", jobName)
	}

	var b strings.Builder
	for _, part := range strings.Split(jobName, "/") {
		if part == "" {
			return "", fmt.Errorf("invalid job name format: %s", jobName)
		}
		b.WriteString("/job/")
		b.WriteString(url.PathEscape(part))
	}
	return b.String(), nil
}

// queuePath converts a queue item Location header into its API path.
// Location format: http://jenkins/queue/item/42/ or /queue/item/42/
func queuePath(location string) (string, bool) {
	pathPart := location
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", false
		}
		pathPart = u.Path
	}

	parts := strings.Split(strings.Trim(pathPart, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "queue" && parts[i+1] == "item" {
			return fmt.Sprintf("/queue/item/%s/api/json", parts[i+2]), true
		}
	}
	return "", false
}

// formatJenkinsError formats Jenkins API errors into user-friendly messages
// without exposing internal implementation details
func formatJenkinsError(statusCode int) error {
	var msg string
	switch statusCode {
	case http.StatusUnauthorized:
		msg = "authentication failed: invalid credentials"
	case http.StatusForbidden:
		msg = "access denied: insufficient permissions"
	case http.StatusNotFound:
		msg = engine.NotFoundMessage
	case http.StatusBadRequest:
		msg = "invalid request"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		msg = fmt.Sprintf("jenkins server error (%d): please try again later", statusCode)
	default:
		msg = fmt.Sprintf("jenkins api request failed (%d)", statusCode)
	}
	return &engine.APIError{StatusCode: statusCode, Message: msg}
}
