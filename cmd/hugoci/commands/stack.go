package commands

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/hugoci/internal/config"
	"git.home.luguber.info/inful/hugoci/internal/credentials"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/history"
	"git.home.luguber.info/inful/hugoci/internal/hugo"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/metrics"
	"git.home.luguber.info/inful/hugoci/internal/notify"
	"git.home.luguber.info/inful/hugoci/internal/pipeline"
	"git.home.luguber.info/inful/hugoci/internal/publish"
	"git.home.luguber.info/inful/hugoci/internal/run"
)

// stack holds the reporting backends shared by every run of one process.
type stack struct {
	cfg      *config.Config
	recorder *metrics.PrometheusRecorder
	history  history.Store
	notifier notify.Notifier
}

func openStack(cfg *config.Config) (*stack, error) {
	s := &stack{
		cfg:      cfg,
		recorder: metrics.NewPrometheusRecorder(nil),
		notifier: notify.Noop{},
	}
	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	if cfg.Notify.NATSURL != "" {
		n, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.Timeout)
		if err != nil {
			slog.Warn("Notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			s.notifier = n
		}
	}
	return s, nil
}

func (s *stack) pipeline(steps ...pipeline.Step) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithRecorder(s.recorder),
		pipeline.WithNotifier(s.notifier),
	}
	if s.history != nil {
		opts = append(opts, pipeline.WithHistory(s.history))
	}
	if s.cfg.Metrics.Textfile != "" {
		opts = append(opts, pipeline.WithTextfile(s.cfg.Metrics.Textfile, s.recorder.Registry()))
	}
	return pipeline.New(steps, opts...)
}

// execute runs steps once. A run that ends failed or aborted is reported as a
// CategoryRun error so the process exits non-zero.
func (s *stack) execute(ctx context.Context, trigger string, steps ...pipeline.Step) error {
	r := run.New(s.cfg.Workspace,
		run.WithEnv(s.cfg.JobEnv()),
		run.WithOutput(os.Stdout),
		run.WithLogger(slog.Default()),
	)
	if err := s.pipeline(steps...).Execute(ctx, r, trigger); err != nil {
		return err
	}
	if r.Failed() {
		return foundation.RunError("run finished with result " + r.Result().String()).
			WithContext(logfields.KeyRunID, r.ID).
			Build()
	}
	return nil
}

func (s *stack) Close() {
	s.notifier.Close()
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("Failed to close history", logfields.Error(err))
		}
	}
}

func buildStep(cfg *config.Config) *hugo.Builder {
	opts := hugo.BuildOptions{
		BaseURL:     cfg.Build.BaseURL,
		Destination: cfg.Build.Destination,
		BuildFuture: cfg.Build.BuildFuture,
		Environment: cfg.Build.Environment,
		Verbose:     cfg.Build.Verbose,
		MinVersion:  cfg.Build.MinVersion,
	}
	opts.SetHugoHome(cfg.Build.HugoHome)
	return hugo.NewBuilder(opts)
}

func publishStep(cfg *config.Config) *publish.Publisher {
	p := cfg.Publish
	return publish.NewPublisher(publish.Options{
		TargetURL:         p.TargetURL,
		PublishDir:        p.PublishDir,
		PublishBranch:     p.PublishBranch,
		CredentialsID:     p.CredentialsID,
		AuthorName:        p.AuthorName,
		AuthorEmail:       p.AuthorEmail,
		CommitterName:     p.CommitterName,
		CommitterEmail:    p.CommitterEmail,
		CommitMessage:     p.CommitMessage,
		StrictCredentials: p.StrictCredentials,
		KeepScratch:       p.KeepScratch,
	}, credentials.NewStore(cfg))
}
