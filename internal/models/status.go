package models

import "time"

// DiskStatus is the last observed usage of the filesystem holding the backup directory.
type DiskStatus struct {
	Path        string    `json:"path"`
	Total       uint64    `json:"total"`
	Free        uint64    `json:"free"`
	UsedPercent float64   `json:"usedPercent"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// DockerStatus tells whether the docker daemon answered a ping.
type DockerStatus struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// Status summarises backup storage for the dashboard.
type Status struct {
	Disk         *DiskStatus    `json:"disk,omitempty"`
	Docker       *DockerStatus  `json:"docker,omitempty"`
	BackupCounts map[string]int `json:"backupCounts"`
}
