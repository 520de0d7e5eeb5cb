package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// DefaultSSHUser is the user for scp-style git remotes.
const DefaultSSHUser = "git"

// SSHProvider handles private-key credentials.
type SSHProvider struct{}

// NewSSHProvider creates a new SSH authentication provider.
func NewSSHProvider() *SSHProvider {
	return &SSHProvider{}
}

// Type returns the credential type this provider handles.
func (p *SSHProvider) Type() config.AuthType {
	return config.AuthTypeSSH
}

// CreateAuth loads the private key, decrypting it with KeyPassphrase when set.
func (p *SSHProvider) CreateAuth(cred *config.Credential) (transport.AuthMethod, error) {
	keyPath := keyPathFor(cred)
	user := cred.Username
	if user == "" {
		user = DefaultSSHUser
	}

	publicKeys, err := ssh.NewPublicKeysFromFile(user, keyPath, cred.KeyPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
	}
	return publicKeys, nil
}

// ValidateConfig checks that the key file exists.
func (p *SSHProvider) ValidateConfig(cred *config.Credential) error {
	keyPath := keyPathFor(cred)
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return fmt.Errorf("SSH key file does not exist: %s", keyPath)
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *SSHProvider) Name() string {
	return "SSHProvider"
}

func keyPathFor(cred *config.Credential) string {
	if cred.KeyPath != "" {
		return cred.KeyPath
	}
	return filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
}
