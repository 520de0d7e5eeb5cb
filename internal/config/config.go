package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

// Load reads, expands and validates the configuration file at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundation.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "failed to read config file").Build()
	}
	return Parse(data)
}

// LoadOptional behaves like Load but returns defaults when path does not exist,
// so that both steps can be driven purely from flags.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		loadEnvFiles()
		slog.Debug("No configuration file, using defaults", "path", path)
		return Parse(nil)
	}
	return Load(path)
}

// Parse decodes YAML after ${VAR} expansion, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "failed to apply defaults").Build()
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindCredential returns the credential with the given id.
func (c *Config) FindCredential(id string) (*Credential, bool) {
	for i := range c.Credentials {
		if c.Credentials[i].ID == id {
			return &c.Credentials[i], true
		}
	}
	return nil, false
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundation.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}

	example := Config{
		Env: map[string]string{"HUGO_ENV": "production"},
		Build: BuildConfig{
			BaseURL:    "https://example.github.io/",
			MinVersion: ">= 0.110.0",
		},
		Publish: PublishConfig{
			TargetURL:     "git@github.com:example/example.github.io.git",
			PublishBranch: "gh-pages",
			CredentialsID: "deploy-key",
			AuthorName:    "Site Publisher",
			AuthorEmail:   "publisher@example.com",
		},
		Credentials: []Credential{
			{ID: "deploy-key", Type: AuthTypeSSH, KeyPath: "${HOME}/.ssh/id_ed25519"},
			{ID: "deploy-token", Type: AuthTypeToken, Token: "${GIT_TOKEN}"},
		},
		History: HistoryConfig{Path: ".hugoci/history.db"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
