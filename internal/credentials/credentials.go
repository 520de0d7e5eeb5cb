// Package credentials resolves opaque credential ids to stored credentials.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/hugoci/internal/config"
)

// ErrNotFound is returned when no credential matches the requested id.
var ErrNotFound = errors.New("credential not found")

// Lookup resolves a credential id.
type Lookup interface {
	Lookup(ctx context.Context, id string) (*config.Credential, error)
}

// Store serves the credentials section of a loaded configuration.
type Store struct {
	cfg *config.Config
}

// NewStore returns a Lookup backed by cfg.Credentials.
func NewStore(cfg *config.Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Lookup(_ context.Context, id string) (*config.Credential, error) {
	if s.cfg == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	cred, ok := s.cfg.FindCredential(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return cred, nil
}

// Static is an in-memory Lookup.
type Static struct {
	mu    sync.RWMutex
	creds map[string]config.Credential
}

// NewStatic creates a Static lookup holding creds, keyed by their ID.
func NewStatic(creds ...config.Credential) *Static {
	s := &Static{creds: make(map[string]config.Credential, len(creds))}
	for _, c := range creds {
		s.creds[c.ID] = c
	}
	return s
}

// Put adds or replaces a credential.
func (s *Static) Put(c config.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[c.ID] = c
}

func (s *Static) Lookup(_ context.Context, id string) (*config.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return &c, nil
}
