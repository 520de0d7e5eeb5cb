package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/hugoci/internal/config"
	"git.home.luguber.info/inful/hugoci/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	b.apply(&cfg.Build)
	return runSteps(cfg, buildStep(cfg))
}

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	PublishFlags `embed:""`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p.apply(&cfg.Publish)
	return runSteps(cfg, publishStep(cfg))
}

// RunCmd implements the 'run' command: build followed by publish.
type RunCmd struct {
	BuildFlags   `embed:""`
	PublishFlags `embed:""`
}

func (c *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	c.BuildFlags.apply(&cfg.Build)
	c.PublishFlags.apply(&cfg.Publish)
	return runSteps(cfg, selectSteps(cfg, true)...)
}

// selectSteps returns the build step, followed by the publish step when wanted and a
// target is configured.
func selectSteps(cfg *config.Config, withPublish bool) []pipeline.Step {
	steps := []pipeline.Step{buildStep(cfg)}
	switch {
	case !withPublish:
	case cfg.Publish.TargetURL == "":
		slog.Info("No publish target configured, skipping publish")
	default:
		steps = append(steps, publishStep(cfg))
	}
	return steps
}

func runSteps(cfg *config.Config, steps ...pipeline.Step) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.execute(ctx, pipeline.TriggerCLI, steps...)
}
