package auth

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/hugoci/internal/config"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

func TestManager_CreateAuth(t *testing.T) {
	manager := NewManager()

	tests := []struct {
		name        string
		cred        *config.Credential
		expectNil   bool
		expectError bool
	}{
		{name: "nil credential", cred: nil, expectNil: true},
		{name: "empty type", cred: &config.Credential{ID: "x"}, expectNil: true},
		{name: "none auth", cred: &config.Credential{ID: "x", Type: config.AuthTypeNone}, expectNil: true},
		{name: "token auth", cred: &config.Credential{ID: "x", Type: config.AuthTypeToken, Token: "t0k"}},
		{name: "token auth missing token", cred: &config.Credential{ID: "x", Type: config.AuthTypeToken}, expectNil: true, expectError: true},
		{name: "basic auth", cred: &config.Credential{ID: "x", Type: config.AuthTypeBasic, Username: "u", Password: "p"}},
		{name: "basic auth missing username", cred: &config.Credential{ID: "x", Type: config.AuthTypeBasic, Password: "p"}, expectNil: true, expectError: true},
		{name: "basic auth missing password", cred: &config.Credential{ID: "x", Type: config.AuthTypeBasic, Username: "u"}, expectNil: true, expectError: true},
		{
			name:        "ssh key missing",
			cred:        &config.Credential{ID: "x", Type: config.AuthTypeSSH, KeyPath: filepath.Join(t.TempDir(), "id_missing")},
			expectNil:   true,
			expectError: true,
		},
		{name: "unsupported type", cred: &config.Credential{ID: "x", Type: "kerberos"}, expectNil: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := manager.CreateAuth(tt.cred)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, foundation.HasCategory(err, foundation.CategoryAuth))
			} else {
				require.NoError(t, err)
			}
			if tt.expectNil {
				assert.Nil(t, auth)
			} else {
				assert.NotNil(t, auth)
			}
		})
	}
}

func TestCreateAuth_TokenUsername(t *testing.T) {
	auth, err := CreateAuth(&config.Credential{ID: "gh", Type: config.AuthTypeToken, Token: "secret"})
	require.NoError(t, err)
	basic, ok := auth.(*http.BasicAuth)
	require.True(t, ok, "got %T", auth)
	assert.Equal(t, "token", basic.Username)
	assert.Equal(t, "secret", basic.Password)

	auth, err = CreateAuth(&config.Credential{ID: "gh", Type: config.AuthTypeToken, Username: "x-access-token", Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "x-access-token", auth.(*http.BasicAuth).Username)
}

func TestCreateAuth_ErrorDoesNotLeakSecret(t *testing.T) {
	_, err := CreateAuth(&config.Credential{ID: "half", Type: config.AuthTypeBasic, Password: "hunter2"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")

	ce, ok := foundation.AsClassified(err)
	require.True(t, ok)
	id, _ := ce.Context().GetString("credentials_id")
	assert.Equal(t, "half", id)
}
