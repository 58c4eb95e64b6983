package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all settings for one extraction run.
type Config struct {
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string
	ProxyURL     string

	PageSize          int
	MaxPages          int
	MaxRecords        int
	RetryMaxAttempts  int
	RequestsPerSecond float64
	Workers           int
	KeepPartialRows   bool
	IssueTypes        []string

	OutputFile string
}

// DefaultIssueTypes is the test-management entity set the report targets.
// Set ISSUE_TYPES to an empty value to sweep every issue type.
var DefaultIssueTypes = []string{
	"Test", "Test Execution", "Test plan", "Test set", "Precondition", "Bug",
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults for everything except credentials.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		JiraBaseURL:       strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
		JiraEmail:         os.Getenv("JIRA_EMAIL"),
		JiraAPIToken:      os.Getenv("JIRA_API_TOKEN"),
		ProxyURL:          os.Getenv("PROXY_URL"),
		PageSize:          getEnvAsInt("PAGE_SIZE", 100),
		MaxPages:          getEnvAsInt("MAX_PAGES", 500),
		MaxRecords:        getEnvAsInt("MAX_RECORDS", 50000),
		RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RequestsPerSecond: getEnvAsFloat("REQUESTS_PER_SECOND", 5),
		Workers:           getEnvAsInt("WORKERS", 1),
		KeepPartialRows:   getEnvAsBool("KEEP_PARTIAL_ROWS", true),
		IssueTypes:        getEnvAsList("ISSUE_TYPES", DefaultIssueTypes),
		OutputFile:        getEnv("OUTPUT_FILE", "consolidated_report.xlsx"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.JiraBaseURL == "" {
		return errors.New("JIRA_BASE_URL is required")
	}
	if c.JiraEmail == "" || c.JiraAPIToken == "" {
		return errors.New("JIRA_EMAIL and JIRA_API_TOKEN are required")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.MaxPages <= 0 {
		return errors.New("MAX_PAGES must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("WORKERS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping empty entries.
// An explicitly empty variable yields an empty list, not the default.
func getEnvAsList(key string, defaultValue []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
