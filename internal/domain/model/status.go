package model

import "time"

// BotStatus is a point-in-time operational snapshot served by the ops
// endpoints. Environment reports presence of deployment variables only,
// never their values.
type BotStatus struct {
	Running        bool       `json:"bot_running"`
	WebhookSet     bool       `json:"webhook_set"`
	StartedAt      time.Time  `json:"started_at"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	LastUpdateAt   *time.Time `json:"last_update_at,omitempty"`
	QueueSize      int        `json:"queue_size"`
	ProcessorAlive bool       `json:"processor_alive"`
	UpdatesHandled int64      `json:"updates_handled"`
	Environment    EnvReport  `json:"environment"`
}

// EnvReport flags which deployment variables were provided.
type EnvReport struct {
	TokenPresent  bool   `json:"telegram_bot_token"`
	RenderAppName bool   `json:"render_app_name"`
	Schedule      string `json:"schedule_source"`
}

// WebhookStatus mirrors the getWebhookInfo fields that matter when
// diagnosing delivery problems.
type WebhookStatus struct {
	URL                string     `json:"webhook_url"`
	PendingUpdateCount int        `json:"pending_update_count"`
	LastErrorDate      *time.Time `json:"last_error_date,omitempty"`
	LastErrorMessage   string     `json:"last_error_message,omitempty"`
	MaxConnections     int        `json:"max_connections,omitempty"`
	IPAddress          string     `json:"ip_address,omitempty"`
}
