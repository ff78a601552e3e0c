package models

import "time"

// Schedule task types.
const (
	TaskBackup  = "backup"
	TaskRestart = "restart"
)

// Schedule represents a single automated task for a tracked config.
type Schedule struct {
	ID             string     `json:"id"`
	Config         string     `json:"config"`
	Name           string     `json:"name"`
	CronExpression string     `json:"cronExpression"` // e.g., "0 4 * * *" for 4 AM daily
	TaskType       string     `json:"taskType"`       // "backup" or "restart"
	IsActive       bool       `json:"isActive"`
	LastRunAt      *time.Time `json:"lastRunAt"`
	NextRunAt      *time.Time `json:"nextRunAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}
