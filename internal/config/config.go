package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RestartConfig says how a tracked service is restarted.
type RestartConfig struct {
	Method string `mapstructure:"method"` // docker, systemd or noop
	Target string `mapstructure:"target"` // container name or unit name
}

// TrackedConfig is one live configuration file and the service consuming it.
type TrackedConfig struct {
	Name         string        `mapstructure:"-"`
	Path         string        `mapstructure:"path"`
	BackupPrefix string        `mapstructure:"backup_prefix"`
	Restart      RestartConfig `mapstructure:"restart"`
}

// Config holds the application configuration.
type Config struct {
	ServerPort       int      `mapstructure:"server_port"`
	DatabasePath     string   `mapstructure:"database_path"`
	BackupDir        string   `mapstructure:"backup_dir"`
	LogLevel         string   `mapstructure:"log_level"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	DiskAlertPercent float64  `mapstructure:"disk_alert_percent"`

	Tacacs     TrackedConfig `mapstructure:"tacacs"`
	Freeradius TrackedConfig `mapstructure:"freeradius"`
}

// Tracked returns the tracked configs in display order.
func (c *Config) Tracked() []TrackedConfig {
	tacacs := c.Tacacs
	tacacs.Name = "tacacs"
	freeradius := c.Freeradius
	freeradius.Name = "freeradius"
	return []TrackedConfig{tacacs, freeradius}
}

var defaults = map[string]any{
	"server_port":        5000,
	"database_path":      "./tacacs-viewer.db",
	"backup_dir":         "/etc/tacacs/backups",
	"log_level":          "info",
	"allowed_origins":    []string{"http://localhost:3000"},
	"disk_alert_percent": 90.0,

	"tacacs.path":           "/etc/tacacs/tacacs.conf",
	"tacacs.backup_prefix":  "tacacs.conf",
	"tacacs.restart.method": "docker",
	"tacacs.restart.target": "tacacs_plus",

	"freeradius.path":           "/etc/freeradius/clients.conf",
	"freeradius.backup_prefix":  "freeradius.clients.conf",
	"freeradius.restart.method": "systemd",
	"freeradius.restart.target": "freeradius",
}

// Environment variable for each key.
var envBindings = map[string]string{
	"server_port":        "PORT",
	"database_path":      "DATABASE_PATH",
	"backup_dir":         "BACKUP_DIR",
	"log_level":          "LOG_LEVEL",
	"allowed_origins":    "ALLOWED_ORIGINS",
	"disk_alert_percent": "DISK_ALERT_PERCENT",

	"tacacs.path":           "TACACS_CONF",
	"tacacs.backup_prefix":  "TACACS_BACKUP_PREFIX",
	"tacacs.restart.method": "TACACS_RESTART_METHOD",
	"tacacs.restart.target": "TACACS_CONTAINER",

	"freeradius.path":           "FREERADIUS_CONF",
	"freeradius.backup_prefix":  "FREERADIUS_BACKUP_PREFIX",
	"freeradius.restart.method": "FREERADIUS_RESTART_METHOD",
	"freeradius.restart.target": "FREERADIUS_UNIT",
}

// New returns a viper instance with defaults and environment bindings applied.
// configFile, if not empty, is read as YAML on top of the defaults.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load loads configuration from defaults, an optional YAML file and environment variables.
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	// Comma-separated lists from the environment keep the spaces around each item.
	cfg.AllowedOrigins = splitList(strings.Join(cfg.AllowedOrigins, ","))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that paths are absolute and every config has its own backup prefix.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port %d out of range", c.ServerPort))
	}
	if c.BackupDir == "" {
		errs = append(errs, errors.New("backup_dir is required"))
	}

	prefixes := make(map[string]string)
	for _, t := range c.Tracked() {
		if !filepath.IsAbs(t.Path) {
			errs = append(errs, fmt.Errorf("%s.path must be absolute, got %q", t.Name, t.Path))
		}
		switch {
		case t.BackupPrefix == "":
			errs = append(errs, fmt.Errorf("%s.backup_prefix is required", t.Name))
		case strings.ContainsAny(t.BackupPrefix, `/\`):
			errs = append(errs, fmt.Errorf("%s.backup_prefix must be a bare file name, got %q", t.Name, t.BackupPrefix))
		case prefixes[t.BackupPrefix] != "":
			errs = append(errs, fmt.Errorf("%s and %s share backup_prefix %q", prefixes[t.BackupPrefix], t.Name, t.BackupPrefix))
		default:
			prefixes[t.BackupPrefix] = t.Name
		}
		switch t.Restart.Method {
		case "docker", "systemd", "noop":
		default:
			errs = append(errs, fmt.Errorf("%s.restart.method %q is not one of docker, systemd, noop", t.Name, t.Restart.Method))
		}
		if t.Restart.Method != "noop" && t.Restart.Target == "" {
			errs = append(errs, fmt.Errorf("%s.restart.target is required", t.Name))
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
