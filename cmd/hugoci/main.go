package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/hugoci/cmd/hugoci/commands"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("hugoci"),
		kong.Description("Build a hugo site and publish it to a git branch."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, &cli)
	os.Exit(foundation.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err))
}
