package config

import "time"

// AssistantConfig configures the chat completion client behind the in-app
// assistant. An empty APIKey disables outbound calls; every message then gets
// the fallback reply.
type AssistantConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	RatePerMinute int
	HistoryLimit  int           // transcript messages sent as context
	TranscriptTTL time.Duration // lifetime of the ephemeral transcript in Redis
}

func LoadAssistantConfig() AssistantConfig {
	return AssistantConfig{
		BaseURL:       envStr("ASSISTANT_BASE_URL", "https://api.openai.com/v1"),
		APIKey:        envStr("ASSISTANT_API_KEY", ""),
		Model:         envStr("ASSISTANT_MODEL", "gpt-4o-mini"),
		Timeout:       envDur("ASSISTANT_TIMEOUT", 30*time.Second),
		RatePerMinute: envInt("ASSISTANT_RATE_PER_MIN", 30),
		HistoryLimit:  envInt("ASSISTANT_HISTORY_LIMIT", 20),
		TranscriptTTL: envDur("ASSISTANT_TRANSCRIPT_TTL", 24*time.Hour),
	}
}

// JobsConfig configures the cron scheduler for background maintenance.
type JobsConfig struct {
	Enabled        bool
	StatusSchedule string // cron spec for the tour status sweep
	InviteSchedule string // cron spec for invitation expiry
	TimeZone       string
}

func LoadJobsConfig() JobsConfig {
	return JobsConfig{
		Enabled:        envBool("JOBS_ENABLED", true),
		StatusSchedule: envStr("JOBS_STATUS_SCHEDULE", "@hourly"),
		InviteSchedule: envStr("JOBS_INVITE_SCHEDULE", "@every 30m"),
		TimeZone:       envStr("JOBS_TZ", "UTC"),
	}
}
