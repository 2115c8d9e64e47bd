package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/spf13/viper"
)

// DefaultIssueKeyPattern matches keys like AB12-345: one uppercase letter,
// uppercase alphanumerics, a hyphen, then digits.
const DefaultIssueKeyPattern = `[A-Z][A-Z0-9]+-\d+`

// Config holds all configuration settings.
// It is loaded once by the CLI and passed explicitly to every component.
type Config struct {
	Jira     JiraConfig       `mapstructure:"jira" yaml:"jira"`
	WakaTime WakaTimeConfig   `mapstructure:"wakatime" yaml:"wakatime"`
	Regex    RegexConfig      `mapstructure:"regex" yaml:"regex"`
	Comment  CommentConfig    `mapstructure:"comment" yaml:"comment"`
	State    StateConfig      `mapstructure:"state" yaml:"state"`
	Git      GitConfig        `mapstructure:"git" yaml:"git"`
	Projects []ProjectMapping `mapstructure:"projects" yaml:"projects"`
	Log      LogConfig        `mapstructure:"log" yaml:"log"`

	// Path the configuration was read from (or will be written to)
	Path string `mapstructure:"-" yaml:"-"`
}

type JiraConfig struct {
	Site     string        `mapstructure:"site" yaml:"site"`
	Email    string        `mapstructure:"email" yaml:"email"`
	APIToken string        `mapstructure:"apiToken" yaml:"apiToken"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Requests per second against the Jira REST API
	RateLimit float64 `mapstructure:"rateLimit" yaml:"rateLimit"`
}

type WakaTimeConfig struct {
	APIKey  string        `mapstructure:"apiKey" yaml:"apiKey"`
	BaseURL string        `mapstructure:"baseURL" yaml:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RegexConfig struct {
	IssueKey string `mapstructure:"issueKey" yaml:"issueKey"`
}

type CommentConfig struct {
	MaxLines            int  `mapstructure:"maxLines" yaml:"maxLines"`
	IncludeCommitHashes bool `mapstructure:"includeCommitHashes" yaml:"includeCommitHashes"`
}

type StateConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`               // ledger JSON file
	HistoryPath string `mapstructure:"historyPath" yaml:"historyPath"` // bbolt run journal
}

type GitConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ProjectMapping binds a local repository to its WakaTime project and Jira project.
type ProjectMapping struct {
	Path            string `mapstructure:"path" yaml:"path"`
	WakaTimeProject string `mapstructure:"wakatimeProject" yaml:"wakatimeProject"`
	JiraProject     string `mapstructure:"jiraProject" yaml:"jiraProject,omitempty"`
}

type LogConfig struct {
	File string `mapstructure:"file" yaml:"file,omitempty"`
	JSON bool   `mapstructure:"json" yaml:"json"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".local", "share", "skuld")
	return &Config{
		Jira: JiraConfig{
			Timeout:   10 * time.Second,
			RateLimit: 5,
		},
		WakaTime: WakaTimeConfig{
			BaseURL: "https://wakatime.com/api/v1",
			Timeout: 10 * time.Second,
		},
		Regex: RegexConfig{
			IssueKey: DefaultIssueKeyPattern,
		},
		Comment: CommentConfig{
			MaxLines:            5,
			IncludeCommitHashes: true,
		},
		State: StateConfig{
			Path:        filepath.Join(stateDir, "state.json"),
			HistoryPath: filepath.Join(stateDir, "history.db"),
		},
		Git: GitConfig{
			Timeout: 15 * time.Second,
		},
	}
}

// DefaultPath returns the config file location used when none is given.
// $SKULD_CONFIG wins, then ~/.skuld.yaml, then the legacy ~/.time-time.yaml.
func DefaultPath() string {
	if env := os.Getenv("SKULD_CONFIG"); env != "" {
		return expandPath(env)
	}
	homeDir, _ := os.UserHomeDir()
	primary := filepath.Join(homeDir, ".skuld.yaml")
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	legacy := filepath.Join(homeDir, ".time-time.yaml")
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return primary
}

// Load loads configuration from file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if path == "" {
		path = DefaultPath()
	}
	path = expandPath(path)

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix("SKULD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical,
				fmt.Sprintf("failed to read config %s", path))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical,
			"failed to unmarshal config")
	}
	cfg.Path = path

	applyEnvOverrides(cfg, NewKeyringManager())
	cfg.State.Path = expandPath(cfg.State.Path)
	cfg.State.HistoryPath = expandPath(cfg.State.HistoryPath)
	cfg.Log.File = expandPath(cfg.Log.File)
	for i := range cfg.Projects {
		cfg.Projects[i].Path = normalizeRepoPath(cfg.Projects[i].Path)
	}

	if result := cfg.Validate(); result.HasErrors() {
		return nil, errors.ConfigError(result.Error()).
			WithRemediation("edit %s", path)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("jira.timeout", cfg.Jira.Timeout)
	v.SetDefault("jira.rateLimit", cfg.Jira.RateLimit)
	v.SetDefault("wakatime.baseURL", cfg.WakaTime.BaseURL)
	v.SetDefault("wakatime.timeout", cfg.WakaTime.Timeout)
	v.SetDefault("regex.issueKey", cfg.Regex.IssueKey)
	v.SetDefault("comment.maxLines", cfg.Comment.MaxLines)
	v.SetDefault("comment.includeCommitHashes", cfg.Comment.IncludeCommitHashes)
	v.SetDefault("state.path", cfg.State.Path)
	v.SetDefault("state.historyPath", cfg.State.HistoryPath)
	v.SetDefault("git.timeout", cfg.Git.Timeout)
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".config", "skuld", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config.
// Secrets follow env var → keychain → config file precedence.
func applyEnvOverrides(cfg *Config, km *KeyringManager) {
	if site := os.Getenv("JIRA_SITE"); site != "" {
		cfg.Jira.Site = site
	}
	if email := os.Getenv("JIRA_EMAIL"); email != "" {
		cfg.Jira.Email = email
	}
	if rate := os.Getenv("JIRA_RATE_LIMIT"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Jira.RateLimit = r
		}
	}

	if token := os.Getenv("JIRA_API_TOKEN"); token != "" {
		cfg.Jira.APIToken = token
	} else if token, err := km.GetSecret(KeyringJiraTokenItem); err == nil && token != "" {
		cfg.Jira.APIToken = token
	}

	if key := os.Getenv("WAKATIME_API_KEY"); key != "" {
		cfg.WakaTime.APIKey = key
	} else if key, err := km.GetSecret(KeyringWakaTimeKeyItem); err == nil && key != "" {
		cfg.WakaTime.APIKey = key
	}

	if path := os.Getenv("SKULD_STATE_PATH"); path != "" {
		cfg.State.Path = path
	}
}

// HasJiraCredentials reports whether site, email and token are all set
func (c *Config) HasJiraCredentials() bool {
	return c.Jira.Site != "" && c.Jira.Email != "" && c.Jira.APIToken != ""
}

// ProjectFor returns the mapping for repoPath. Sync refuses to run without one.
func (c *Config) ProjectFor(repoPath string) (ProjectMapping, error) {
	target := normalizeRepoPath(repoPath)
	for _, p := range c.Projects {
		if p.Path == target {
			return p, nil
		}
	}
	return ProjectMapping{}, errors.ConfigErrorf("no project mapping for repository %s", target).
		WithContext("config", c.Path).
		WithRemediation("run: skuld map --project %s --wakatime-project <name> [--jira-project <KEY>]", target)
}

// SetProject inserts or replaces the mapping for m.Path
func (c *Config) SetProject(m ProjectMapping) {
	m.Path = normalizeRepoPath(m.Path)
	for i, p := range c.Projects {
		if p.Path == m.Path {
			c.Projects[i] = m
			return
		}
	}
	c.Projects = append(c.Projects, m)
}

// SaveProjects writes the project mappings into the config file at path,
// leaving every other key in the file as it was.
func (c *Config) SaveProjects(path string) error {
	if path == "" {
		path = c.Path
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	projects := make([]map[string]interface{}, 0, len(c.Projects))
	for _, p := range c.Projects {
		entry := map[string]interface{}{
			"path":            p.Path,
			"wakatimeProject": p.WakaTimeProject,
		}
		if p.JiraProject != "" {
			entry["jiraProject"] = p.JiraProject
		}
		projects = append(projects, entry)
	}
	v.Set("projects", projects)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

func normalizeRepoPath(path string) string {
	path = expandPath(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
