package providers

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// BasicProvider handles username/password credentials over HTTP(S).
type BasicProvider struct{}

// NewBasicProvider creates a new basic authentication provider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{}
}

// Type returns the credential type this provider handles.
func (p *BasicProvider) Type() config.AuthType {
	return config.AuthTypeBasic
}

// CreateAuth creates HTTP basic auth from the credential.
func (p *BasicProvider) CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	if err := p.ValidateConfig(cred); err != nil {
		return nil, err
	}
	return &http.BasicAuth{
		Username: cred.Username,
		Password: cred.Password,
	}, nil
}

// ValidateConfig requires both username and password.
func (p *BasicProvider) ValidateConfig(cred *config.Credential) error {
	if cred.Username == "" {
		return errors.New("basic authentication requires a username")
	}
	if cred.Password == "" {
		return errors.New("basic authentication requires a password")
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *BasicProvider) Name() string {
	return "BasicProvider"
}
