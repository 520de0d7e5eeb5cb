package commands

import "git.home.luguber.info/inful/hugoci/internal/config"

// BuildFlags override the build section of the configuration file.
type BuildFlags struct {
	HugoHome    string `name:"hugo-home" help:"Directory containing the hugo binary" group:"build"`
	BaseURL     string `name:"base-url" help:"Override the site baseURL" group:"build"`
	Destination string `help:"Output directory (default .public)" group:"build"`
	BuildFuture *bool  `name:"build-future" help:"Include content with a future publish date" negatable:"" group:"build"`
	Environment string `help:"Hugo environment" group:"build"`
	HugoVerbose *bool  `name:"hugo-verbose" help:"Pass --verbose to hugo" negatable:"" group:"build"`
	MinVersion  string `name:"min-version" help:"Semver constraint the installed hugo must satisfy" group:"build"`
}

func (f BuildFlags) apply(b *config.BuildConfig) {
	setString(&b.HugoHome, f.HugoHome)
	setString(&b.BaseURL, f.BaseURL)
	setString(&b.Destination, f.Destination)
	setString(&b.Environment, f.Environment)
	setString(&b.MinVersion, f.MinVersion)
	setBool(&b.BuildFuture, f.BuildFuture)
	setBool(&b.Verbose, f.HugoVerbose)
}

// PublishFlags override the publish section of the configuration file.
type PublishFlags struct {
	TargetURL         string `name:"target-url" help:"Remote repository to push to" group:"publish"`
	PublishDir        string `name:"publish-dir" help:"Directory to publish (default .public)" group:"publish"`
	Branch            string `help:"Remote branch (default gh-pages)" group:"publish"`
	CredentialsID     string `name:"credentials-id" help:"Credential id from the credentials section" group:"publish"`
	AuthorName        string `name:"author-name" group:"publish"`
	AuthorEmail       string `name:"author-email" group:"publish"`
	CommitterName     string `name:"committer-name" group:"publish"`
	CommitterEmail    string `name:"committer-email" group:"publish"`
	Message           string `short:"m" help:"Commit message" group:"publish"`
	StrictCredentials *bool  `name:"strict-credentials" help:"Fail when the credential cannot be used" negatable:"" group:"publish"`
	KeepScratch       *bool  `name:"keep-scratch" help:"Keep the scratch clone for inspection" negatable:"" group:"publish"`
}

func (f PublishFlags) apply(p *config.PublishConfig) {
	setString(&p.TargetURL, f.TargetURL)
	setString(&p.PublishDir, f.PublishDir)
	setString(&p.PublishBranch, f.Branch)
	setString(&p.CredentialsID, f.CredentialsID)
	setString(&p.AuthorName, f.AuthorName)
	setString(&p.AuthorEmail, f.AuthorEmail)
	setString(&p.CommitterName, f.CommitterName)
	setString(&p.CommitterEmail, f.CommitterEmail)
	setString(&p.CommitMessage, f.Message)
	setBool(&p.StrictCredentials, f.StrictCredentials)
	setBool(&p.KeepScratch, f.KeepScratch)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// setBool applies a boolean flag only when it was given, in either direction.
func setBool(dst, v *bool) {
	if v != nil {
		*dst = *v
	}
}
