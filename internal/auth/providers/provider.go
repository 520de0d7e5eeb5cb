package providers

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// AuthProvider turns a stored credential of one type into go-git transport auth.
type AuthProvider interface {
	// Type returns the credential type this provider handles.
	Type() config.AuthType

	// CreateAuth returns nil, nil when the credential needs no authentication.
	CreateAuth(cred *config.Credential) (transport.AuthMethod, error)

	ValidateConfig(cred *config.Credential) error

	Name() string
}

// AuthProviderRegistry maps credential types to providers.
type AuthProviderRegistry struct {
	providers map[config.AuthType]AuthProvider
}

// NewAuthProviderRegistry creates a registry holding the standard providers.
func NewAuthProviderRegistry() *AuthProviderRegistry {
	registry := &AuthProviderRegistry{
		providers: make(map[config.AuthType]AuthProvider),
	}

	registry.Register(NewNoneProvider())
	registry.Register(NewSSHProvider())
	registry.Register(NewTokenProvider())
	registry.Register(NewBasicProvider())

	return registry
}

// Register adds or replaces the provider for its type.
func (r *AuthProviderRegistry) Register(provider AuthProvider) {
	r.providers[provider.Type()] = provider
}

// GetProvider returns the provider for the given type.
func (r *AuthProviderRegistry) GetProvider(authType config.AuthType) (AuthProvider, bool) {
	provider, exists := r.providers[authType]
	return provider, exists
}

// CreateAuth validates cred with its provider and builds the transport auth.
// A nil credential or an empty type means no authentication.
func (r *AuthProviderRegistry) CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	if cred.IsZero() {
		return nil, nil
	}

	provider, exists := r.GetProvider(cred.Type)
	if !exists {
		return nil, &AuthError{CredentialID: cred.ID, Type: cred.Type, Message: "unsupported authentication type"}
	}

	if err := provider.ValidateConfig(cred); err != nil {
		return nil, &AuthError{CredentialID: cred.ID, Type: cred.Type, Message: "configuration validation failed", Cause: err}
	}

	auth, err := provider.CreateAuth(cred)
	if err != nil {
		return nil, &AuthError{CredentialID: cred.ID, Type: cred.Type, Message: "failed to create authentication", Cause: err}
	}
	return auth, nil
}

// AuthError reports a credential that cannot be turned into transport auth.
type AuthError struct {
	CredentialID string
	Type         config.AuthType
	Message      string
	Cause        error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth error (%s %q): %s: %v", e.Type, e.CredentialID, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth error (%s %q): %s", e.Type, e.CredentialID, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Cause }
