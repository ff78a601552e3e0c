package models

import "time"

// Backup is a point-in-time copy of a tracked config's live file.
type Backup struct {
	ID        string    `json:"id"`     // e.g. "tacacs.conf.bak.20240101000000"
	Config    string    `json:"config"` // owning logical config name
	Path      string    `json:"-"`      // Internal use, not exposed to client
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
