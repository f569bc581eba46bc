package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/waabox/devsync/internal/domain"
)

func TestErrNoRemote_CanBeDetectedWithErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("validating repository: %w", domain.ErrNoRemote)
	if !errors.Is(wrapped, domain.ErrNoRemote) {
		t.Error("expected errors.Is to detect ErrNoRemote in wrapped error")
	}
}
