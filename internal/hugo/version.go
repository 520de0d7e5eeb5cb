package hugo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	herrors "git.home.luguber.info/inful/hugoci/internal/hugo/errors"
)

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// ParseVersion extracts the semantic version from `hugo version` output.
// Expected formats include:
//
//	hugo v0.152.2+extended linux/amd64 BuildDate=2024-12-20T08:00:00Z
//	Hugo Static Site Generator v0.54.0-B1A82C61 linux/amd64
//
// It returns "" when no version is found.
func ParseVersion(output string) string {
	if m := versionRegex.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	return ""
}

// CheckVersion verifies that the version reported in output satisfies constraint.
// An empty constraint always passes.
func CheckVersion(constraint, output string) (string, error) {
	found := ParseVersion(output)
	if strings.TrimSpace(constraint) == "" {
		return found, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return found, fmt.Errorf("invalid min_version constraint %q: %w", constraint, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: no version in %q", herrors.ErrVersionUnsatisfied, strings.TrimSpace(output))
	}
	v, err := semver.NewVersion(found)
	if err != nil {
		return found, fmt.Errorf("parse hugo version %q: %w", found, err)
	}
	if !c.Check(v) {
		return found, fmt.Errorf("%w: %s does not satisfy %s", herrors.ErrVersionUnsatisfied, found, constraint)
	}
	return found, nil
}
