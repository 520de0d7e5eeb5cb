package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ValidateRemoteURL checks that url parses as a git endpoint (scp-like, file or URL form).
func ValidateRemoteURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: empty url", ErrMalformedURL)
	}
	if _, err := transport.NewEndpoint(url); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrMalformedURL, url, err)
	}
	return nil
}
