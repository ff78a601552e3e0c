package models

// ConfigFileInfo describes a tracked live configuration file.
type ConfigFileInfo struct {
	Name         string `json:"name"` // e.g. "tacacs", "freeradius"
	Path         string `json:"path"`
	BackupPrefix string `json:"backupPrefix"`
	Exists       bool   `json:"exists"`
}

// ConfigContent is the live text of a tracked config file.
type ConfigContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
