package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NewNotFoundError("payroll payment", id), ErrNotFound},
		{"invalid transition", NewInvalidTransitionError("payroll payment", "CANCELLED", "PAID"), ErrInvalidTransition},
		{"validation", NewValidationError("amount %d is negative", -1), ErrValidation},
		{"conflict", NewConflictError("version mismatch"), ErrConcurrencyConflict},
		{"ledger invariant", NewLedgerInvariantError("payroll payment", id, 2), ErrLedgerInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := fmt.Errorf("apply change: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestDomainError_DifferentCodesDoNotMatch(t *testing.T) {
	err := NewValidationError("bad")
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(errors.New("bad"), ErrValidation))
}

func TestDomainError_MessageCarriesContext(t *testing.T) {
	id := uuid.MustParse("7f0c2f4e-8a3b-4c39-9d6a-0b6f8a1e2d3c")
	err := NewLedgerInvariantError("maintenance task", id, 3)
	assert.Equal(t, "maintenance task 7f0c2f4e-8a3b-4c39-9d6a-0b6f8a1e2d3c is referenced by 3 ledger entries", err.Error())
	assert.Equal(t, CodeLedgerInvariant, err.Code)
}
