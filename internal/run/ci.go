package run

// CIVars describes the CI build that started the run, read from Jenkins-style variables.
type CIVars struct {
	JobName  string
	BuildID  string
	BuildURL string
	SHA      string
	Branch   string
}

// IsZero reports whether no CI variables were found.
func (v CIVars) IsZero() bool { return v == CIVars{} }

// CI reads the CI variables from the run environment.
func (r *Run) CI() CIVars {
	v := CIVars{
		JobName:  r.Getenv("JOB_NAME"),
		BuildID:  r.Getenv("BUILD_NUMBER"),
		BuildURL: r.Getenv("BUILD_URL"),
		SHA:      r.Getenv("GIT_COMMIT"),
		Branch:   r.Getenv("GIT_BRANCH"),
	}
	if v.BuildID == "" {
		// BUILD_ID predates BUILD_NUMBER on old Jenkins versions
		v.BuildID = r.Getenv("BUILD_ID")
	}
	return v
}
