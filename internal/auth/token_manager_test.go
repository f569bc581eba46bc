package auth_test

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/waabox/devsync/internal/auth"
	"github.com/waabox/devsync/internal/domain"
)

func TestTokenManager_KeyringTakesPrecedence(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")

	tm := auth.NewTokenManager("ghp_fromconfig")
	if err := tm.Save("ghp_fromkeyring"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := tm.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "ghp_fromkeyring" {
		t.Errorf("expected keyring token, got %q", token)
	}
}

func TestTokenManager_EnvBeforeConfig(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")

	tm := auth.NewTokenManager("ghp_fromconfig")
	token, err := tm.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "ghp_fromenv" {
		t.Errorf("expected env token, got %q", token)
	}
}

func TestTokenManager_ConfigFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "")

	tm := auth.NewTokenManager("ghp_fromconfig")
	token, err := tm.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "ghp_fromconfig" {
		t.Errorf("expected config token, got %q", token)
	}
}

func TestTokenManager_NoSourceIsErrNoCredential(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "")

	tm := auth.NewTokenManager("")
	_, err := tm.Token()
	if !errors.Is(err, domain.ErrNoCredential) {
		t.Errorf("expected ErrNoCredential, got %v", err)
	}
}

func TestTokenManager_DeleteRemovesToken(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GITHUB_TOKEN", "")

	tm := auth.NewTokenManager("")
	if err := tm.Save("ghp_tmp"); err != nil {
		t.Fatal(err)
	}
	if err := tm.Delete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tm.Token(); !errors.Is(err, domain.ErrNoCredential) {
		t.Errorf("expected ErrNoCredential after delete, got %v", err)
	}

	// Deleting again is not an error.
	if err := tm.Delete(); err != nil {
		t.Errorf("second delete must be a no-op, got %v", err)
	}
}

func TestTokenManager_SaveRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := auth.NewTokenManager("").Save(""); err == nil {
		t.Error("expected error when saving an empty token")
	}
}
