package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SKULD_CONFIG", "")
	t.Setenv("JIRA_SITE", "")
	t.Setenv("JIRA_EMAIL", "")
	t.Setenv("JIRA_API_TOKEN", "")
	t.Setenv("WAKATIME_API_KEY", "")
	t.Setenv("SKULD_STATE_PATH", "")
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "skuld.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIssueKeyPattern, cfg.Regex.IssueKey)
	assert.Equal(t, 5, cfg.Comment.MaxLines)
	assert.True(t, cfg.Comment.IncludeCommitHashes)
	assert.Equal(t, 10*time.Second, cfg.Jira.Timeout)
	assert.Equal(t, filepath.Join(home, ".local", "share", "skuld", "state.json"), cfg.State.Path)
	assert.False(t, cfg.HasJiraCredentials())
}

func TestLoad_ReadsFile(t *testing.T) {
	home := isolate(t)
	repo := filepath.Join(home, "src", "app")
	path := writeConfig(t, home, `
jira:
  site: https://example.atlassian.net/
  email: dev@example.com
  apiToken: secret-token-value
  timeout: 3s
wakatime:
  apiKey: waka_123
regex:
  issueKey: "[A-Z]+-\\d+"
comment:
  maxLines: 3
  includeCommitHashes: false
state:
  path: ~/state/ledger.json
projects:
  - path: `+repo+`
    wakatimeProject: app
    jiraProject: AB
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net/", cfg.Jira.Site)
	assert.Equal(t, "secret-token-value", cfg.Jira.APIToken)
	assert.Equal(t, 3*time.Second, cfg.Jira.Timeout)
	assert.Equal(t, "waka_123", cfg.WakaTime.APIKey)
	assert.Equal(t, `[A-Z]+-\d+`, cfg.Regex.IssueKey)
	assert.Equal(t, 3, cfg.Comment.MaxLines)
	assert.False(t, cfg.Comment.IncludeCommitHashes)
	assert.Equal(t, filepath.Join(home, "state", "ledger.json"), cfg.State.Path)
	assert.True(t, cfg.HasJiraCredentials())

	m, err := cfg.ProjectFor(repo)
	require.NoError(t, err)
	assert.Equal(t, "app", m.WakaTimeProject)
	assert.Equal(t, "AB", m.JiraProject)
}

func TestLoad_EnvAndKeychainOverrides(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "jira:\n  site: https://example.atlassian.net\n  apiToken: from-file\n")

	km := NewKeyringManager()
	require.NoError(t, km.SetSecret(KeyringJiraTokenItem, "from-keychain"))
	require.NoError(t, km.SetSecret(KeyringWakaTimeKeyItem, "waka-keychain"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", cfg.Jira.APIToken)
	assert.Equal(t, "waka-keychain", cfg.WakaTime.APIKey)
	assert.Equal(t, "keychain", KeySource(cfg, km, KeyringJiraTokenItem))

	t.Setenv("JIRA_API_TOKEN", "from-env")
	t.Setenv("JIRA_EMAIL", "env@example.com")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Jira.APIToken)
	assert.Equal(t, "env@example.com", cfg.Jira.Email)
	assert.Equal(t, "env", KeySource(cfg, km, KeyringJiraTokenItem))
}

func TestLoad_RejectsAmbiguousProjects(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, `
projects:
  - path: /work/app
    wakatimeProject: app
  - path: /work/app/
    wakatimeProject: other
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "mapped more than once")
}

func TestLoad_RejectsRelativeSite(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "jira:\n  site: example.atlassian.net\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an absolute URL")
}

func TestValidate_InvalidPatternIsOnlyAWarning(t *testing.T) {
	cfg := Default()
	cfg.Regex.IssueKey = "[unclosed"

	result := cfg.Validate()
	assert.False(t, result.HasErrors())
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "falling back")
}

func TestProjectFor_MissingMappingIsConfigError(t *testing.T) {
	cfg := Default()

	_, err := cfg.ProjectFor("/tmp/unmapped")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfig, errors.GetType(err))
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, errors.Remediation(err), "skuld map")
}

func TestSetProjectAndSave(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "jira:\n  site: https://example.atlassian.net\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.SetProject(ProjectMapping{Path: "/work/app", WakaTimeProject: "app"})
	cfg.SetProject(ProjectMapping{Path: "/work/app/", WakaTimeProject: "app2", JiraProject: "AB"})
	require.Len(t, cfg.Projects, 1)
	require.NoError(t, cfg.SaveProjects(""))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", reloaded.Jira.Site)
	m, err := reloaded.ProjectFor("/work/app")
	require.NoError(t, err)
	assert.Equal(t, "app2", m.WakaTimeProject)
	assert.Equal(t, "AB", m.JiraProject)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "abcd...wxyz", MaskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestSecretItem(t *testing.T) {
	item, err := SecretItem("jira")
	require.NoError(t, err)
	assert.Equal(t, KeyringJiraTokenItem, item)

	_, err = SecretItem("github")
	assert.Error(t, err)
}
