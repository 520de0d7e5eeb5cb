package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show (0 for all)" default:"20"`
	RunID string `arg:"" optional:"" name:"run-id" help:"Show the steps of one run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return foundation.ConfigError("run history is disabled (set history.path)").Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.RunID != "" {
		return printRun(ctx, g.out(), store, h.RunID)
	}
	return printRecent(ctx, g.out(), store, h.Limit)
}

func printRecent(ctx context.Context, w io.Writer, store history.Store, limit int) error {
	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tTRIGGER\tRESULT\tDURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Started.Local().Format(time.DateTime), r.Trigger, r.Result, formatDuration(r.Duration()))
	}
	return tw.Flush()
}

func printRun(ctx context.Context, w io.Writer, store history.Store, id string) error {
	rec, steps, err := store.Run(ctx, id)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryNotFound, "unknown run").
			WithContext("run_id", id).
			UserAction().
			Build()
	}
	_, _ = fmt.Fprintf(w, "Run %s (%s) %s in %s\n", rec.ID, rec.Trigger, rec.Result, formatDuration(rec.Duration()))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STEP\tRESULT\tDURATION\tDETAILS")
	for _, s := range steps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Step, s.Result, formatDuration(s.Duration), stepDetails(s))
	}
	return tw.Flush()
}

func stepDetails(s history.StepRecord) string {
	parts := make([]string, 0, len(s.Metadata)+1)
	if s.Error != "" {
		parts = append(parts, "error="+s.Error)
	}
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+s.Metadata[k])
	}
	return strings.Join(parts, " ")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
