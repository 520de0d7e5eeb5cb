package config

import "git.home.luguber.info/inful/hugoci/internal/foundation/normalization"

// AuthType enumerates supported credential kinds (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

var authTypes = normalization.New(map[string]AuthType{
	"none":     AuthTypeNone,
	"ssh":      AuthTypeSSH,
	"ssh-key":  AuthTypeSSH,
	"token":    AuthTypeToken,
	"pat":      AuthTypeToken,
	"basic":    AuthTypeBasic,
	"password": AuthTypeBasic,
})

// ParseAuthType accepts the canonical type names and a few common aliases in any case.
func ParseAuthType(raw string) (AuthType, error) { return authTypes.Normalize(raw) }

// Credential is a stored credential addressed by an opaque ID.
type Credential struct {
	ID            string   `yaml:"id"`
	Type          AuthType `yaml:"type"`
	Username      string   `yaml:"username,omitempty"`
	Password      string   `yaml:"password,omitempty"`
	Token         string   `yaml:"token,omitempty"`
	KeyPath       string   `yaml:"key_path,omitempty"`
	KeyPassphrase string   `yaml:"key_passphrase,omitempty"`
}

// IsZero reports whether no auth method is specified.
func (c *Credential) IsZero() bool { return c == nil || c.Type == "" || c.Type == AuthTypeNone }

// Redacted returns a copy safe for logging.
func (c Credential) Redacted() Credential {
	if c.Password != "" {
		c.Password = "***"
	}
	if c.Token != "" {
		c.Token = "***"
	}
	if c.KeyPassphrase != "" {
		c.KeyPassphrase = "***"
	}
	return c
}
