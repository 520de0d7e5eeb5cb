// Package auth turns stored credentials into go-git transport authentication.
package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/hugoci/internal/auth/providers"
	"git.home.luguber.info/inful/hugoci/internal/config"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

// Manager provides a high-level interface for authentication operations.
type Manager struct {
	registry *providers.AuthProviderRegistry
}

// NewManager creates a new authentication manager with the standard providers.
func NewManager() *Manager {
	return &Manager{
		registry: providers.NewAuthProviderRegistry(),
	}
}

// CreateAuth returns transport auth for cred. nil cred or type none yields nil auth.
// Unusable credentials are reported as auth errors.
func (m *Manager) CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	auth, err := m.registry.CreateAuth(cred)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryAuth, "cannot use credential").
			WithContext("credentials_id", cred.ID).
			WithContext("type", string(cred.Type)).
			UserAction().
			Build()
	}
	return auth, nil
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuth uses the default manager.
func CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	return DefaultManager.CreateAuth(cred)
}
