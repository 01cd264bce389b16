package jenkinsjob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/storage/models"
)

func TestStatus_FetchesOnce(t *testing.T) {
	ci := &MockCIEngine{
		GetBuildFunc: func(jobName string, number int) (*engine.Build, error) {
			assert.Equal(t, "deploy-tests", jobName)
			assert.Equal(t, 7, number)
			return &engine.Build{Number: 7, Result: "SUCCESS", URL: "http://jenkins/job/deploy-tests/7/"}, nil
		},
	}
	status := NewStatus(ci, "deploy-tests", 7)
	ctx := context.Background()

	result, err := status.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", result)

	url, err := status.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://jenkins/job/deploy-tests/7/", url)

	building, err := status.Building(ctx)
	require.NoError(t, err)
	assert.False(t, building)

	assert.Equal(t, 1, ci.getBuildCalls)
}

func TestStatus_NotFound(t *testing.T) {
	ci := &MockCIEngine{
		GetBuildFunc: func(string, int) (*engine.Build, error) {
			return nil, &engine.APIError{StatusCode: 404, Message: engine.NotFoundMessage}
		},
	}
	status := NewStatus(ci, "removed-job", 3)

	result, err := status.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Requested component is not found on the Jenkins CI server.", result)

	url, err := status.URL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#", url)
	assert.Equal(t, 1, ci.getBuildCalls)
}

func TestStatus_ErrorIsNotKept(t *testing.T) {
	calls := 0
	ci := &MockCIEngine{
		GetBuildFunc: func(string, int) (*engine.Build, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("connection refused")
			}
			return &engine.Build{Number: 1, Building: true}, nil
		},
	}
	status := NewStatus(ci, "deploy-tests", 1)

	_, err := status.Result(context.Background())
	require.Error(t, err)

	building, err := status.Building(context.Background())
	require.NoError(t, err)
	assert.True(t, building)

	result, err := status.Result(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result, "running builds have no result")
	assert.Equal(t, 2, calls)
}

func TestLookup(t *testing.T) {
	ci := &MockCIEngine{
		GetBuildFunc: func(string, int) (*engine.Build, error) {
			return &engine.Build{Number: 9, URL: "http://jenkins/job/a/9/", Building: true}, nil
		},
	}
	id := 9

	report, err := Lookup(context.Background(), ci, models.JobRun{ID: 1, Name: "a", DeployID: 2, JenkinsID: &id})
	require.NoError(t, err)
	assert.Equal(t, "http://jenkins/job/a/9/", report.URL)
	assert.True(t, report.Building)
	assert.Empty(t, report.Result)
	assert.Equal(t, 1, ci.getBuildCalls)

	report, err = Lookup(context.Background(), ci, models.JobRun{ID: 2, Name: "b", Status: models.StatusStartupError, Error: "boom"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusStartupError, report.Status)
	assert.Equal(t, "boom", report.Error)
	assert.Equal(t, 1, ci.getBuildCalls, "unstarted runs are not looked up")
}
