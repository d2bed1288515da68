package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "ecoaceite/internal/errors"
)

// AssertAppError fails unless err is an *AppError carrying expectedCode.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", expectedCode)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError %s, got %T: %v", expectedCode, err, err)
	case appErr.Code != expectedCode:
		t.Errorf("expected %s, got %s (%s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError stops the test on any error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal compares amounts by value, so "60" equals "60.00".
func AssertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got.String())
	}
}
