package models

import "time"

// Event represents a loggable action or alert in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "config.write", "backup.restore", "system.alert.disk"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Config    *string   `json:"config,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
