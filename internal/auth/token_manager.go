package auth

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/waabox/devsync/internal/domain"
)

const (
	keyringService = "devsync"
	keyringUser    = "github_token"
)

// TokenManager resolves and persists the GitHub release credential.
// Lookup order: system keyring, GITHUB_TOKEN environment variable, config
// file value. A keyring that is unavailable (headless hosts, missing
// dbus) silently falls through to the other sources.
type TokenManager struct {
	configToken string
}

// NewTokenManager creates a TokenManager. configToken is the token stored
// in the config file, used as the last fallback; pass empty when none.
func NewTokenManager(configToken string) *TokenManager {
	return &TokenManager{configToken: configToken}
}

// Token returns the release credential, or domain.ErrNoCredential when no
// source has one. The pipeline treats a missing credential as degraded
// mode, not as a failure.
func (tm *TokenManager) Token() (string, error) {
	if token, err := keyring.Get(keyringService, keyringUser); err == nil && token != "" {
		return token, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if tm.configToken != "" {
		return tm.configToken, nil
	}
	return "", domain.ErrNoCredential
}

// Save stores the token in the system keyring. On failure the caller is
// expected to persist the token to the config file instead.
func (tm *TokenManager) Save(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to save an empty token")
	}
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return fmt.Errorf("saving token to keyring: %w", err)
	}
	tm.configToken = token
	return nil
}

// Delete removes the token from the keyring. A missing entry is not an
// error.
func (tm *TokenManager) Delete() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("deleting token from keyring: %w", err)
	}
	tm.configToken = ""
	return nil
}
