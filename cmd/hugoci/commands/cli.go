// Package commands implements the hugoci command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/hugoci/internal/config"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

// Global is shared state bound into every command's Run method.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // user-facing output (history tables, init messages)
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"hugoci.yaml"`
	Chdir   string           `short:"C" help:"Run as if started in this directory (the job workspace)" type:"existingdir"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" aliases:"hugo" help:"Run the hugo build step"`
	Publish PublishCmd `cmd:"" aliases:"hugo-git-publish" help:"Force-push the generated site to a git branch"`
	Run     RunCmd     `cmd:"" help:"Build, then publish when a target is configured"`
	Daemon  DaemonCmd  `cmd:"" help:"Run on a schedule and whenever sources change"`
	History HistoryCmd `cmd:"" help:"Show recorded runs"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.Chdir != "" {
		if err := os.Chdir(c.Chdir); err != nil {
			return foundation.WrapError(err, foundation.CategoryFileSystem, fmt.Sprintf("cannot change to %s", c.Chdir)).Build()
		}
	}
	return nil
}

// loadConfig reads the configuration file. A missing file is fine when it is the
// default path; both steps can run from flags alone.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == config.DefaultConfigPath {
		return config.LoadOptional(c.Config)
	}
	return config.Load(c.Config)
}
