package config

import (
	"fmt"
	"strings"

	"chatkit/src/models"
)

var knownBackends = []string{BackendFile, BackendPebble, BackendSQLite, BackendMemory}

var knownLevels = []string{"debug", "info", "warn", "error"}

// Validate returns every configuration problem found. Theme and font keys are
// checked against the catalogs by the customize package.
func (c *Config) Validate() []string {
	var problems []string

	if c.API.Namespace == "" {
		problems = append(problems, "Namespace is required in API configuration")
	}
	if c.API.AIModel == "" {
		problems = append(problems, "AI Model is required in API configuration")
	}
	if c.API.TopK < 1 {
		problems = append(problems, "top_k must be a positive number")
	}
	if t := c.API.Temperature; t != nil && (*t < 0 || *t > 2) {
		problems = append(problems, "temperature must be a number between 0 and 2")
	}
	if th := c.API.Threshold; th != nil && (*th < 0 || *th > 1) {
		problems = append(problems, "threshold must be a number between 0 and 1")
	}
	if c.API.KioskMode && c.API.Threshold == nil {
		problems = append(problems, "threshold is required when kiosk_mode is true")
	}
	if c.API.Window() < 0 {
		problems = append(problems, "historyWindow must not be negative")
	}
	if c.API.RequestsPerSecond < 0 {
		problems = append(problems, "requestsPerSecond must not be negative")
	}
	if !contains(knownBackends, c.Storage.Backend) {
		problems = append(problems, fmt.Sprintf("unknown storage backend %q (expected one of %s)",
			c.Storage.Backend, strings.Join(knownBackends, ", ")))
	}
	if !contains(knownLevels, strings.ToLower(c.Log.Level)) {
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	if c.Theme.Transition() < 0 {
		problems = append(problems, "theme transitionDuration must not be negative")
	}
	if c.History.MaxSessions != nil && *c.History.MaxSessions < 0 {
		problems = append(problems, "history maxSessions must not be negative")
	}
	if strings.TrimSpace(c.Branding.StoragePrefix) == "" {
		problems = append(problems, "branding storagePrefix must not be blank")
	}
	return problems
}

// ValidateForNetwork adds the checks needed before contacting the answer service.
func (c *Config) ValidateForNetwork() []string {
	problems := c.Validate()
	if c.API.APIKey == "" {
		problems = append(problems, "CHATKIT_API_KEY environment variable is required")
	}
	return problems
}

// Err wraps problems into a ValidationError, or returns nil when there are none.
func Err(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &models.ValidationError{Problems: problems}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
