package config

import "time"

// Config is the hugoci configuration file (hugoci.yaml).
type Config struct {
	// Workspace is the job working directory; relative paths resolve against it.
	Workspace   string            `yaml:"workspace,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"` // extra job environment passed to hugo
	Build       BuildConfig       `yaml:"build"`
	Publish     PublishConfig     `yaml:"publish"`
	Credentials []Credential      `yaml:"credentials,omitempty"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Notify      NotifyConfig      `yaml:"notify"`
	Daemon      DaemonConfig      `yaml:"daemon"`
}

// BuildConfig configures the hugo build step.
type BuildConfig struct {
	HugoHome    string `yaml:"hugo_home,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	BuildFuture bool   `yaml:"build_future,omitempty"`
	Environment string `yaml:"environment,omitempty"`
	Verbose     bool   `yaml:"verbose,omitempty"`
	MinVersion  string `yaml:"min_version,omitempty"` // semver constraint, e.g. ">= 0.110.0"
}

// PublishConfig configures the git publish step.
type PublishConfig struct {
	TargetURL         string `yaml:"target_url,omitempty"`
	PublishDir        string `yaml:"publish_dir,omitempty"`
	PublishBranch     string `yaml:"publish_branch,omitempty"`
	CredentialsID     string `yaml:"credentials_id,omitempty"`
	AuthorName        string `yaml:"author_name,omitempty"`
	AuthorEmail       string `yaml:"author_email,omitempty"`
	CommitterName     string `yaml:"committer_name,omitempty"`
	CommitterEmail    string `yaml:"committer_email,omitempty"`
	CommitMessage     string `yaml:"commit_message,omitempty"`
	StrictCredentials bool   `yaml:"strict_credentials,omitempty"`
	KeepScratch       bool   `yaml:"keep_scratch,omitempty"`
}

// HistoryConfig configures the sqlite run history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures Prometheus metrics: a node-exporter textfile written after
// each run, and in daemon mode an optional /metrics listener.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
	Listen   string `yaml:"listen,omitempty"` // e.g. ":9109"
}

// NotifyConfig configures NATS step notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url,omitempty"`
	Subject string        `yaml:"subject,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// DaemonConfig configures scheduled and watch-triggered runs.
type DaemonConfig struct {
	Schedule string        `yaml:"schedule,omitempty"` // cron expression
	Interval time.Duration `yaml:"interval,omitempty"`
	Watch    []string      `yaml:"watch,omitempty"` // workspace-relative dirs
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Publish  bool          `yaml:"publish,omitempty"` // also run the publish step
}
