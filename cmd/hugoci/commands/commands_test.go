package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/hugoci/internal/config"
	"git.home.luguber.info/inful/hugoci/internal/daemon"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/metrics"
	"git.home.luguber.info/inful/hugoci/internal/testutil/testutils"
	"git.home.luguber.info/inful/hugoci/internal/workspace"
)

func parse(t *testing.T, args ...string) (*kong.Context, *CLI) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("hugoci"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return kctx, &cli
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	kctx, cli := parse(t, args...)
	var out bytes.Buffer
	err := kctx.Run(&Global{Out: &out}, cli)
	return out.String(), err
}

// newWorkspace writes a config file for a fresh workspace and returns both paths.
func newWorkspace(t *testing.T) (ws, cfgPath string) {
	t.Helper()
	ws = t.TempDir()
	cfgPath = filepath.Join(ws, "hugoci.yaml")
	data := "workspace: " + ws + "\n" +
		"history:\n  path: .hugoci/history.db\n" +
		"metrics:\n  textfile: metrics/hugoci.prom\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(data), 0o600))
	return ws, cfgPath
}

func boolPtr(v bool) *bool { return &v }

func TestCLI_CommandAliases(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{[]string{"build"}, "build"},
		{[]string{"hugo", "--destination", "out"}, "build"},
		{[]string{"publish"}, "publish"},
		{[]string{"hugo-git-publish", "--target-url", "https://example.com/site.git"}, "publish"},
		{[]string{"run", "--base-url", "https://x", "--branch", "pages"}, "run"},
		{[]string{"history", "abc"}, "history <run-id>"},
		{[]string{"init", "--force"}, "init"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			kctx, _ := parse(t, tt.args...)
			assert.Equal(t, tt.command, kctx.Command())
		})
	}
}

func TestBuildFlags_Apply(t *testing.T) {
	b := config.BuildConfig{BaseURL: "https://file", Destination: "dist", MinVersion: ">= 0.100.0"}
	BuildFlags{}.apply(&b)
	assert.Equal(t, "https://file", b.BaseURL)
	assert.Equal(t, "dist", b.Destination)

	BuildFlags{BaseURL: "https://flag", BuildFuture: boolPtr(true), HugoVerbose: boolPtr(true), HugoHome: "/opt/hugo"}.apply(&b)
	assert.Equal(t, "https://flag", b.BaseURL)
	assert.Equal(t, "dist", b.Destination)
	assert.Equal(t, "/opt/hugo", b.HugoHome)
	assert.True(t, b.BuildFuture)
	assert.True(t, b.Verbose)
	assert.Equal(t, ">= 0.100.0", b.MinVersion)

	BuildFlags{BuildFuture: boolPtr(false)}.apply(&b)
	assert.False(t, b.BuildFuture)
	assert.True(t, b.Verbose)
}

func TestPublishFlags_Apply(t *testing.T) {
	p := config.PublishConfig{TargetURL: "https://file/site.git", PublishBranch: "main", StrictCredentials: true}
	PublishFlags{Branch: "gh-pages", Message: "deploy", CredentialsID: "key"}.apply(&p)
	assert.Equal(t, "https://file/site.git", p.TargetURL)
	assert.Equal(t, "gh-pages", p.PublishBranch)
	assert.Equal(t, "deploy", p.CommitMessage)
	assert.Equal(t, "key", p.CredentialsID)
	assert.True(t, p.StrictCredentials)

	PublishFlags{StrictCredentials: boolPtr(false), KeepScratch: boolPtr(true)}.apply(&p)
	assert.False(t, p.StrictCredentials)
	assert.True(t, p.KeepScratch)
}

func TestBoolFlags_OverrideFileInBothDirections(t *testing.T) {
	fromFile := func() *config.Config {
		cfg := &config.Config{}
		cfg.Build.BuildFuture = true
		cfg.Publish.KeepScratch = true
		return cfg
	}

	_, cli := parse(t, "run", "--no-build-future", "--keep-scratch=false", "--strict-credentials")
	cfg := fromFile()
	cli.Run.BuildFlags.apply(&cfg.Build)
	cli.Run.PublishFlags.apply(&cfg.Publish)
	assert.False(t, cfg.Build.BuildFuture)
	assert.False(t, cfg.Publish.KeepScratch)
	assert.True(t, cfg.Publish.StrictCredentials)

	_, cli = parse(t, "run")
	assert.Nil(t, cli.Run.BuildFuture)
	cfg = fromFile()
	cli.Run.BuildFlags.apply(&cfg.Build)
	cli.Run.PublishFlags.apply(&cfg.Publish)
	assert.True(t, cfg.Build.BuildFuture, "an absent flag keeps the file value")
	assert.True(t, cfg.Publish.KeepScratch)

	_, cli = parse(t, "daemon", "--no-publish")
	cfg = fromFile()
	cfg.Daemon.Publish = true
	cli.Daemon.apply(cfg)
	assert.False(t, cfg.Daemon.Publish)
}

func TestPublishCommand_PushesAndRecordsHistory(t *testing.T) {
	ws, cfgPath := newWorkspace(t)
	testutils.WriteTree(t, filepath.Join(ws, ".public"), map[string]string{
		"index.html":    "<h1>home</h1>",
		"css/style.css": "body{}",
	})
	remote := testutils.NewBareRemote(t)
	testutils.SeedBranch(t, remote, "gh-pages", map[string]string{"stale.html": "old"})

	_, err := execute(t, "-c", cfgPath, "hugo-git-publish", "--target-url", remote, "-m", "Deploy")
	require.NoError(t, err)

	content, ok := testutils.ReadBranchFile(t, remote, "gh-pages", "index.html")
	require.True(t, ok)
	assert.Equal(t, "<h1>home</h1>", content)
	_, ok = testutils.ReadBranchFile(t, remote, "gh-pages", "stale.html")
	assert.True(t, ok, "files are copied over the clone, not replacing it")
	assert.Equal(t, "Deploy", testutils.BranchCommit(t, remote, "gh-pages").Message)

	assert.FileExists(t, filepath.Join(ws, "metrics", "hugoci.prom"))
	scratch, err := os.ReadDir(workspace.TempArea(ws))
	require.NoError(t, err)
	assert.Empty(t, scratch)

	out, err := execute(t, "-c", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "TRIGGER")
	assert.Contains(t, out, "cli")
	assert.Contains(t, out, "SUCCESS")
}

func TestPublishCommand_MissingPublishDirFailsRun(t *testing.T) {
	_, cfgPath := newWorkspace(t)
	remote := testutils.NewBareRemote(t)
	testutils.SeedBranch(t, remote, "gh-pages", map[string]string{"index.html": "old"})

	_, err := execute(t, "-c", cfgPath, "publish", "--target-url", remote)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryRun))
	assert.Equal(t, 1, foundation.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	out, err := execute(t, "-c", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILURE")
}

func TestPublishCommand_RequiresTarget(t *testing.T) {
	_, cfgPath := newWorkspace(t)
	_, err := execute(t, "-c", cfgPath, "publish")
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryConfig))
}

func TestBuildCommand_MissingHugoFailsRun(t *testing.T) {
	ws, cfgPath := newWorkspace(t)
	_, err := execute(t, "-c", cfgPath, "build", "--hugo-home", filepath.Join(ws, "no-such-dir"))
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryRun))
	assert.NoDirExists(t, filepath.Join(ws, ".public"))
}

func TestRunCommand_SkipsPublishAfterFailedBuild(t *testing.T) {
	ws, cfgPath := newWorkspace(t)
	remote := testutils.NewBareRemote(t)
	before := testutils.SeedBranch(t, remote, "gh-pages", map[string]string{"index.html": "old"})
	testutils.WriteTree(t, filepath.Join(ws, ".public"), map[string]string{"index.html": "new"})

	_, err := execute(t, "-c", cfgPath, "run", "--hugo-home", filepath.Join(ws, "missing"), "--target-url", remote)
	require.Error(t, err)
	assert.Equal(t, before, testutils.BranchHash(t, remote, "gh-pages"))

	out, err := execute(t, "-c", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILURE")
}

func TestHistoryCommand(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ws := t.TempDir()
		cfgPath := filepath.Join(ws, "custom.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("workspace: "+ws+"\n"), 0o600))
		_, err := execute(t, "-c", cfgPath, "history")
		require.Error(t, err)
		assert.True(t, foundation.HasCategory(err, foundation.CategoryConfig))
	})

	t.Run("empty", func(t *testing.T) {
		_, cfgPath := newWorkspace(t)
		out, err := execute(t, "-c", cfgPath, "history")
		require.NoError(t, err)
		assert.Equal(t, "No runs recorded\n", out)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, cfgPath := newWorkspace(t)
		_, err := execute(t, "-c", cfgPath, "history", "nope")
		require.Error(t, err)
		assert.True(t, foundation.HasCategory(err, foundation.CategoryNotFound))
	})
}

func TestInitCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "hugoci.yaml")

	out, err := execute(t, "-c", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "gh-pages", cfg.Publish.PublishBranch)

	_, err = execute(t, "-c", cfgPath, "init")
	require.Error(t, err)

	_, err = execute(t, "-c", cfgPath, "init", "--force")
	require.NoError(t, err)
}

func TestWatchPaths(t *testing.T) {
	cfg := &config.Config{Workspace: "/srv/site"}
	cfg.Daemon.Watch = []string{"content", "/shared/themes"}
	cfg.Build.Destination = "dist"

	assert.Equal(t, []string{"/srv/site/content", "/shared/themes"}, watchRoots(cfg))
	assert.Equal(t, []string{
		"/srv/site/dist",
		"/srv/site/.public",
		"/srv/site/resources/_gen",
		"/srv/site@tmp",
	}, watchIgnores(cfg))

	cfg.History.Path = "/srv/site/history.db"
	cfg.Metrics.Textfile = "/srv/site/metrics/hugoci.prom"
	ignores := watchIgnores(cfg)
	assert.Contains(t, ignores, "/srv/site/history.db*")
	assert.Contains(t, ignores, "/srv/site/metrics")

	cfg.Daemon.Watch = []string{"metrics/dashboards"}
	assert.Contains(t, watchIgnores(cfg), "/srv/site/metrics/hugoci.prom*")
}

func TestWatchIgnores_RunOutputsNeverTrigger(t *testing.T) {
	ws := t.TempDir()
	cfg := &config.Config{Workspace: ws}
	cfg.Daemon.Watch = []string{"."}
	cfg.History.Path = filepath.Join(ws, "history.db")
	cfg.Metrics.Textfile = filepath.Join(ws, "metrics", "hugoci.prom")

	var fired atomic.Int32
	w, err := daemon.NewSourceWatcher(watchRoots(cfg), watchIgnores(cfg), 20*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	for _, name := range []string{"history.db", "history.db-journal", "history.db-wal"} {
		require.NoError(t, os.WriteFile(filepath.Join(ws, name), []byte("x"), 0o600))
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "hugoci_test_total"}))
	require.NoError(t, metrics.WriteTextfile(reg, cfg.Metrics.Textfile))

	assert.Never(t, func() bool { return fired.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(ws, "config.toml"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDaemonCmd_Apply(t *testing.T) {
	cfg := &config.Config{}
	cfg.Daemon.Schedule = "0 * * * *"
	d := DaemonCmd{Watch: []string{"content"}, Publish: boolPtr(true), MetricsListen: ":9109"}
	d.apply(cfg)

	assert.Equal(t, "0 * * * *", cfg.Daemon.Schedule)
	assert.Equal(t, []string{"content"}, cfg.Daemon.Watch)
	assert.Equal(t, ":9109", cfg.Metrics.Listen)
	assert.True(t, cfg.Daemon.Publish)
}
