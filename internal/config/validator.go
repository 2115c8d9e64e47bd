package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Validate rejects ambiguous or malformed settings at load time so that
// components never need to second-guess their inputs.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	c.validateJira(result)
	c.validateRegex(result)
	c.validateComment(result)
	c.validateProjects(result)

	if c.State.Path == "" {
		result.AddError("state.path must not be empty")
	}

	return result
}

func (c *Config) validateJira(result *ValidationResult) {
	if c.Jira.Site == "" {
		result.AddWarning("jira.site is not set; ownership cannot be verified and apply will refuse")
		return
	}
	u, err := url.Parse(c.Jira.Site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("jira.site %q is not an absolute URL", c.Jira.Site)
	}
	if c.Jira.Email == "" {
		result.AddWarning("jira.email is not set")
	}
	if c.Jira.RateLimit < 0 {
		result.AddError("jira.rateLimit must not be negative")
	}
}

func (c *Config) validateRegex(result *ValidationResult) {
	if c.Regex.IssueKey == "" {
		return
	}
	if _, err := regexp.Compile(c.Regex.IssueKey); err != nil {
		result.AddWarning("regex.issueKey is invalid (%v); falling back to %s", err, DefaultIssueKeyPattern)
	}
}

func (c *Config) validateComment(result *ValidationResult) {
	if c.Comment.MaxLines <= 0 {
		result.AddError("comment.maxLines must be positive, got %d", c.Comment.MaxLines)
	}
}

func (c *Config) validateProjects(result *ValidationResult) {
	seen := make(map[string]bool)
	for i, p := range c.Projects {
		if p.Path == "" {
			result.AddError("projects[%d].path must not be empty", i)
			continue
		}
		if seen[p.Path] {
			result.AddError("projects: %s is mapped more than once", p.Path)
		}
		seen[p.Path] = true
		if p.WakaTimeProject == "" {
			result.AddError("projects[%d] (%s) has no wakatimeProject", i, p.Path)
		}
	}
}
