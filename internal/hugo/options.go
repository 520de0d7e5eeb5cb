package hugo

import "strings"

// DefaultDestination is the conventional hidden output folder. It is the handoff
// between the build step and the publish step.
const DefaultDestination = ".public"

// BuildOptions configures one hugo build. Blank strings are omitted from the command.
type BuildOptions struct {
	hugoHome    string
	BaseURL     string
	Destination string
	BuildFuture bool
	Environment string
	Verbose     bool
	// MinVersion is an optional semver constraint checked after `hugo version`.
	MinVersion string
}

// SetHugoHome sets the tool path prefix. A blank value clears it; otherwise the
// trimmed path gets exactly one trailing "/" when it lacks one.
func (o *BuildOptions) SetHugoHome(home string) {
	home = strings.TrimSpace(home)
	if home == "" {
		o.hugoHome = ""
		return
	}
	if !strings.HasSuffix(home, "/") {
		home += "/"
	}
	o.hugoHome = home
}

// HugoHome returns the normalized tool path prefix ("" when unset).
func (o BuildOptions) HugoHome() string { return o.hugoHome }

// ResolvedDestination returns Destination, or DefaultDestination when blank.
func (o BuildOptions) ResolvedDestination() string {
	if isBlank(o.Destination) {
		return DefaultDestination
	}
	return o.Destination
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
