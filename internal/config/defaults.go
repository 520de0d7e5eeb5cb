package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigPath     = "hugoci.yaml"
	DefaultNotifySubject  = "hugoci.runs"
	DefaultNotifyTimeout  = 5 * time.Second
	DefaultDaemonDebounce = 2 * time.Second
)

// applyDefaults fills unset fields. Step-level defaults (destination, publish branch)
// live with the steps themselves so that flags and files resolve the same way.
func applyDefaults(cfg *Config) error {
	if cfg.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Workspace = wd
	}
	abs, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return err
	}
	cfg.Workspace = abs

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}
	if cfg.Daemon.Debounce <= 0 {
		cfg.Daemon.Debounce = DefaultDaemonDebounce
	}
	if cfg.History.Path != "" && !filepath.IsAbs(cfg.History.Path) {
		cfg.History.Path = filepath.Join(cfg.Workspace, cfg.History.Path)
	}
	if cfg.Metrics.Textfile != "" && !filepath.IsAbs(cfg.Metrics.Textfile) {
		cfg.Metrics.Textfile = filepath.Join(cfg.Workspace, cfg.Metrics.Textfile)
	}
	for i := range cfg.Credentials {
		if cfg.Credentials[i].Type == "" {
			cfg.Credentials[i].Type = AuthTypeNone
			continue
		}
		// unknown spellings are left for Validate to report
		if t, err := ParseAuthType(string(cfg.Credentials[i].Type)); err == nil {
			cfg.Credentials[i].Type = t
		}
	}
	return nil
}
