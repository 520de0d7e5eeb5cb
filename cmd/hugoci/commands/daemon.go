package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"git.home.luguber.info/inful/hugoci/internal/config"
	"git.home.luguber.info/inful/hugoci/internal/daemon"
	"git.home.luguber.info/inful/hugoci/internal/hugo"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/metrics"
	"git.home.luguber.info/inful/hugoci/internal/workspace"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Schedule      string        `help:"Cron expression for scheduled runs"`
	Interval      time.Duration `help:"Run every interval (alternative to --schedule)"`
	Watch         []string      `help:"Workspace-relative directories to watch for changes" sep:","`
	Publish       *bool         `help:"Also publish after each successful build" negatable:""`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address"`

	BuildFlags   `embed:""`
	PublishFlags `embed:""`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	d.apply(cfg)

	s, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	steps := selectSteps(cfg, cfg.Daemon.Publish)
	dm, err := daemon.New(daemon.Options{
		Schedule:       cfg.Daemon.Schedule,
		Interval:       cfg.Daemon.Interval,
		Watch:          watchRoots(cfg),
		Ignore:         watchIgnores(cfg),
		Debounce:       cfg.Daemon.Debounce,
		MetricsListen:  cfg.Metrics.Listen,
		MetricsHandler: metrics.HTTPHandler(s.recorder.Registry()),
	}, func(ctx context.Context, trigger string) error {
		return s.execute(ctx, trigger, steps...)
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	slog.Info("Starting daemon mode", logfields.Dir(cfg.Workspace))
	return dm.Run(ctx)
}

func (d *DaemonCmd) apply(cfg *config.Config) {
	d.BuildFlags.apply(&cfg.Build)
	d.PublishFlags.apply(&cfg.Publish)
	setString(&cfg.Daemon.Schedule, d.Schedule)
	setString(&cfg.Metrics.Listen, d.MetricsListen)
	if d.Interval > 0 {
		cfg.Daemon.Interval = d.Interval
	}
	if len(d.Watch) > 0 {
		cfg.Daemon.Watch = d.Watch
	}
	setBool(&cfg.Daemon.Publish, d.Publish)
}

func watchRoots(cfg *config.Config) []string {
	roots := make([]string, 0, len(cfg.Daemon.Watch))
	for _, w := range cfg.Daemon.Watch {
		roots = append(roots, resolve(cfg.Workspace, w))
	}
	return roots
}

// watchIgnores lists the paths hugo and the publish step write to, so that a run
// never triggers the next one.
func watchIgnores(cfg *config.Config) []string {
	dest := cfg.Build.Destination
	if dest == "" {
		dest = hugo.DefaultDestination
	}
	publishDir := cfg.Publish.PublishDir
	if publishDir == "" {
		publishDir = hugo.DefaultDestination
	}
	ignores := []string{
		resolve(cfg.Workspace, dest),
		resolve(cfg.Workspace, publishDir),
		resolve(cfg.Workspace, filepath.Join("resources", "_gen")),
		workspace.TempArea(cfg.Workspace),
	}
	roots := watchRoots(cfg)
	for _, f := range []string{cfg.History.Path, cfg.Metrics.Textfile} {
		if f != "" {
			ignores = append(ignores, fileIgnores(cfg.Workspace, resolve(cfg.Workspace, f), roots)...)
		}
	}
	return ignores
}

// fileIgnores covers a file written on every run together with its siblings: the
// sqlite journal and WAL files, or the temp file a textfile is renamed from. The
// whole directory is ignored when it holds nothing else that is watched.
func fileIgnores(ws, file string, roots []string) []string {
	dir := filepath.Dir(file)
	if dir != filepath.Clean(ws) && !containsAny(dir, roots) {
		return []string{dir}
	}
	return []string{globEscaper.Replace(file) + "*"}
}

func containsAny(dir string, roots []string) bool {
	for _, r := range roots {
		if r == dir || strings.HasPrefix(r, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
