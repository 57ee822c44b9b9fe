package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Jira
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string
	JiraBoards   []string

	// Google APIs (Docs, Drive, Sheets)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	DriveFolderID      string
	SheetIDs           []string

	// OpenAI narrative generation
	OpenAIAPIKey string
	OpenAIModel  string

	// SendGrid delivery
	SendGridAPIKey    string
	FromEmail         string
	FromName          string
	PreviewRecipients []string
	FinalRecipients   []string

	// Ops server auth
	TriggerAPIKey string

	// State store
	StatePath          string
	StatusHistoryLimit int

	// History retention
	HistoryRetention time.Duration
}

func Load() Config {
	cfg := Config{
		Port:        envOr("PORT", "8085"),
		Environment: envOr("ENVIRONMENT", "development"),

		JiraBaseURL:  os.Getenv("JIRA_BASE_URL"),
		JiraEmail:    os.Getenv("JIRA_EMAIL"),
		JiraAPIToken: os.Getenv("JIRA_API_TOKEN"),
		JiraBoards:   envList("JIRA_BOARDS"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
		DriveFolderID:      os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
		SheetIDs:           envList("GOOGLE_SHEET_IDS"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		FromEmail:         os.Getenv("FROM_EMAIL"),
		FromName:          envOr("FROM_NAME", "Weekly Reports System"),
		PreviewRecipients: envList("PREVIEW_EMAIL_RECIPIENTS"),
		FinalRecipients:   envList("FINAL_EMAIL_RECIPIENTS"),

		TriggerAPIKey: os.Getenv("TRIGGER_API_KEY"),

		StatePath:          envOr("STATE_PATH", "weeklyreport.db"),
		StatusHistoryLimit: envInt("STATUS_HISTORY_LIMIT", 20),

		HistoryRetention: envDuration("HISTORY_RETENTION", 90*24*time.Hour),
	}

	if cfg.HistoryRetention <= 0 {
		cfg.HistoryRetention = 90 * 24 * time.Hour
	}

	return cfg
}

// Validate checks the settings every run needs. The state store and
// ops-server settings are optional: a missing database only disables
// history tracking.
func (c Config) Validate() error {
	if c.JiraBaseURL == "" {
		return fmt.Errorf("JIRA_BASE_URL is required")
	}
	if c.JiraAPIToken == "" {
		return fmt.Errorf("JIRA_API_TOKEN is required")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRefreshToken == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("FROM_EMAIL is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
