package hugo

// VersionCommand returns the preflight command line.
func VersionCommand(opts BuildOptions) string {
	return opts.HugoHome() + "hugo version"
}

// BuildCommand returns the build command line. Flags are appended in a fixed order:
// destination (always), buildFuture, baseURL, environment, verbose.
//
// The buildFuture flag keeps its trailing space, so a following flag is separated
// by two spaces.
func BuildCommand(opts BuildOptions) string {
	cmd := opts.HugoHome() + "hugo"
	cmd += " --destination " + opts.ResolvedDestination()

	if opts.BuildFuture {
		cmd += " --buildFuture "
	}
	if !isBlank(opts.BaseURL) {
		cmd += " --baseURL " + opts.BaseURL
	}
	if !isBlank(opts.Environment) {
		cmd += " --environment " + opts.Environment
	}
	if opts.Verbose {
		cmd += " --verbose"
	}
	return cmd
}
