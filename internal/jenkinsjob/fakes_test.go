package jenkinsjob

import (
	"context"
	"sync"
	"time"

	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/storage/models"
)

// MockCIEngine is a mock implementation of engine.CIEngine
type MockCIEngine struct {
	TriggerBuildFunc func(jobName string, params map[string]string, startTimeout time.Duration) (int, error)
	GetBuildFunc     func(jobName string, number int) (*engine.Build, error)

	mu            sync.Mutex
	triggered     []string
	lastParams    map[string]string
	getBuildCalls int
}

func (m *MockCIEngine) TriggerBuild(_ context.Context, jobName string, params map[string]string, startTimeout time.Duration) (int, error) {
	m.mu.Lock()
	m.triggered = append(m.triggered, jobName)
	m.lastParams = params
	m.mu.Unlock()
	if m.TriggerBuildFunc != nil {
		return m.TriggerBuildFunc(jobName, params, startTimeout)
	}
	return 1, nil
}

func (m *MockCIEngine) GetBuild(_ context.Context, jobName string, number int) (*engine.Build, error) {
	m.mu.Lock()
	m.getBuildCalls++
	m.mu.Unlock()
	if m.GetBuildFunc != nil {
		return m.GetBuildFunc(jobName, number)
	}
	return &engine.Build{Number: number, Result: "SUCCESS", URL: "http://jenkins/job/" + jobName + "/"}, nil
}

func (m *MockCIEngine) GetJobConfig(context.Context, string) (string, error) {
	return "<project/>", nil
}

func (m *MockCIEngine) PostJobConfig(context.Context, string, string) error {
	return nil
}

type mockConfigurator struct {
	calls   []string
	changed bool
	err     error
}

func (m *mockConfigurator) Configure(_ context.Context, jobName, project, stage string) (bool, error) {
	m.calls = append(m.calls, jobName+":"+project+":"+stage)
	return m.changed, m.err
}

type memoryStore struct {
	runs []models.JobRun
	err  error
}

func (s *memoryStore) CreateJobRun(_ context.Context, run *models.JobRun) error {
	if s.err != nil {
		return s.err
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, *run)
	return nil
}

func testDeploy() Deploy {
	return Deploy{
		ID:              42,
		Project:         "ProjectA",
		Stage:           "StageA",
		Reference:       "v1.2.3",
		Commit:          "abc123",
		Tag:             "v1.2.3",
		URL:             "https://samson.example.com/projects/a/deploys/42",
		UserName:        "Jane Doe",
		UserEmail:       "jane@example.com",
		BuddyEmail:      "buddy@EXAMPLE.com",
		CommitterEmails: []string{"dev@example.com", "outsider@other.org"},
		JobNames:        []string{"deploy-tests"},
	}
}
