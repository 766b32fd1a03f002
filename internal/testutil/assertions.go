package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/BudHamud/safe/internal/currency"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
)

// AssertAppError fails unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError %q, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("error code = %q, want %q (%s)", appErr.Code, code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertSnapshot checks the frozen amount of tx in code. want "" asserts the
// snapshot is missing.
func AssertSnapshot(t *testing.T, tx *models.Transaction, code currency.Code, want string) {
	t.Helper()

	got := currency.Snapshot(tx, code)
	switch {
	case want == "" && got != nil:
		t.Errorf("%s snapshot = %s, want none", code, got)
	case want == "":
	case got == nil:
		t.Errorf("%s snapshot missing, want %s", code, want)
	case !got.Equal(decimal.RequireFromString(want)):
		t.Errorf("%s snapshot = %s, want %s", code, got, want)
	}
}
