package providers

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// NoneProvider handles credentials of type "none".
type NoneProvider struct{}

func NewNoneProvider() *NoneProvider { return &NoneProvider{} }

func (p *NoneProvider) Type() config.AuthType { return config.AuthTypeNone }

func (p *NoneProvider) CreateAuth(_ *config.Credential) (transport.AuthMethod, error) {
	return nil, nil
}

func (p *NoneProvider) ValidateConfig(_ *config.Credential) error { return nil }

func (p *NoneProvider) Name() string { return "NoneProvider" }
