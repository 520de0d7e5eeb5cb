package providers

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// DefaultTokenUsername is sent alongside a token when the credential names no user.
const DefaultTokenUsername = "token"

// TokenProvider handles access-token credentials over HTTP(S).
type TokenProvider struct{}

// NewTokenProvider creates a new token authentication provider.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// Type returns the credential type this provider handles.
func (p *TokenProvider) Type() config.AuthType {
	return config.AuthTypeToken
}

// CreateAuth sends the token as the basic-auth password, under Username when set.
func (p *TokenProvider) CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	if err := p.ValidateConfig(cred); err != nil {
		return nil, err
	}
	username := cred.Username
	if username == "" {
		username = DefaultTokenUsername
	}
	return &http.BasicAuth{
		Username: username,
		Password: cred.Token,
	}, nil
}

// ValidateConfig requires a token.
func (p *TokenProvider) ValidateConfig(cred *config.Credential) error {
	if cred.Token == "" {
		return errors.New("token authentication requires a token")
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *TokenProvider) Name() string {
	return "TokenProvider"
}
