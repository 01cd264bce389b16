package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "127.0.0.1"

database:
  path: ./test.db

jenkins:
  url: https://jenkins.example.com
  username: deployer
  token: test-token
  timeout: 15
  build_start_timeout: 45
  config_cache_ttl: 30m
  config_race_ttl: 30s
  email_domain: example.com

api:
  keys:
    - test-api-key-1
    - test-api-key-2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "./test.db", cfg.Database.Path)
	assert.Equal(t, "https://jenkins.example.com", cfg.Jenkins.URL)
	assert.Equal(t, "deployer", cfg.Jenkins.Username)
	assert.Equal(t, 15, cfg.Jenkins.Timeout)
	assert.Equal(t, 45, cfg.Jenkins.BuildStartTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Jenkins.ConfigCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Jenkins.ConfigRaceTTL)
	assert.Equal(t, "example.com", cfg.Jenkins.EmailDomain)
	assert.Equal(t, []string{"test-api-key-1", "test-api-key-2"}, cfg.API.Keys)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
jenkins:
  url: https://jenkins.example.com
  token: test-token
api:
  keys: [k]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodySize)
	assert.Equal(t, "./samsonjenkins.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Jenkins.Timeout)
	assert.Equal(t, 60, cfg.Jenkins.BuildStartTimeout)
	assert.Equal(t, 1000, cfg.Jenkins.PollInterval)
	assert.Equal(t, time.Hour, cfg.Jenkins.ConfigCacheTTL)
	assert.Equal(t, time.Minute, cfg.Jenkins.ConfigRaceTTL)
	assert.Equal(t, "test-token", cfg.Jenkins.Username, "username falls back to token")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jenkins:
  url: https://jenkins.example.com
  token: test-token
api:
  keys: [k]
`)

	t.Setenv("SAMSON_JENKINS_URL", "https://other.example.com")
	t.Setenv("SAMSON_JENKINS_USERNAME", "env-user")
	t.Setenv("SAMSON_JENKINS_TOKEN", "env-token")
	t.Setenv("SAMSON_SERVER_PORT", "7000")
	t.Setenv("JENKINS_EMAIL_DOMAIN", "legacy.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com", cfg.Jenkins.URL)
	assert.Equal(t, "env-user", cfg.Jenkins.Username)
	assert.Equal(t, "env-token", cfg.Jenkins.Token)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "legacy.example.com", cfg.Jenkins.EmailDomain)

	t.Setenv("SAMSON_JENKINS_EMAIL_DOMAIN", "new.example.com")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "new.example.com", cfg.Jenkins.EmailDomain)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing jenkins url",
			content: "jenkins:\n  token: t\napi:\n  keys: [k]\n",
			errText: "jenkins.url is required",
		},
		{
			name:    "missing token",
			content: "jenkins:\n  url: http://j\napi:\n  keys: [k]\n",
			errText: "jenkins.token is required",
		},
		{
			name:    "no api keys",
			content: "jenkins:\n  url: http://j\n  token: t\n",
			errText: "at least one api.key is required",
		},
		{
			name:    "empty api key",
			content: "jenkins:\n  url: http://j\n  token: t\napi:\n  keys: [\"\"]\n",
			errText: "api.keys[0] cannot be empty",
		},
		{
			name:    "invalid port",
			content: "server:\n  port: 70000\njenkins:\n  url: http://j\n  token: t\napi:\n  keys: [k]\n",
			errText: "invalid server.port",
		},
		{
			name:    "race window longer than ttl",
			content: "jenkins:\n  url: http://j\n  token: t\n  config_cache_ttl: 1m\n  config_race_ttl: 2m\napi:\n  keys: [k]\n",
			errText: "config_race_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("SAMSON_LOG_LEVEL", "")
	assert.Equal(t, "info", GetLogLevel())

	t.Setenv("SAMSON_LOG_LEVEL", "debug")
	assert.Equal(t, "debug", GetLogLevel())

	t.Setenv("SAMSON_LOG_LEVEL", "verbose")
	assert.Equal(t, "info", GetLogLevel())
}
