package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no provider in the chain yields a key.
var ErrNoAPIKey = &ConfigError{
	Field:   "APIKey",
	Message: "GROQ_API_KEY environment variable is required",
}

// CredentialProvider resolves the completion API key.
// Keys are plain text; there is no obfuscated variant.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// EnvCredentials reads the first non-empty variable in Names.
type EnvCredentials struct {
	Names []string
}

// APIKey implements CredentialProvider.
func (e EnvCredentials) APIKey(ctx context.Context) (string, error) {
	for _, name := range e.Names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", ErrNoAPIKey
}

// FileCredentials reads the key from a file, e.g. a mounted secret.
// PathEnv names a variable holding the path; Path is used when it is unset.
type FileCredentials struct {
	PathEnv string
	Path    string
}

// APIKey implements CredentialProvider.
func (f FileCredentials) APIKey(ctx context.Context) (string, error) {
	path := f.Path
	if f.PathEnv != "" {
		if v := os.Getenv(f.PathEnv); v != "" {
			path = v
		}
	}
	if path == "" {
		return "", ErrNoAPIKey
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoAPIKey
		}
		return "", fmt.Errorf("read key file %s: %w", path, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// ChainCredentials tries each provider in order.
type ChainCredentials []CredentialProvider

// APIKey implements CredentialProvider.
func (c ChainCredentials) APIKey(ctx context.Context) (string, error) {
	for _, p := range c {
		key, err := p.APIKey(ctx)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrNoAPIKey) {
			return "", err
		}
	}
	return "", ErrNoAPIKey
}

// DefaultCredentials checks GROQ_API_KEY, then the file named by GROQ_API_KEY_FILE.
func DefaultCredentials() CredentialProvider {
	return ChainCredentials{
		EnvCredentials{Names: []string{"GROQ_API_KEY"}},
		FileCredentials{PathEnv: "GROQ_API_KEY_FILE"},
	}
}

var (
	_ CredentialProvider = EnvCredentials{}
	_ CredentialProvider = FileCredentials{}
	_ CredentialProvider = ChainCredentials{}
)
