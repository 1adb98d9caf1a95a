package payroll

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveBonusStatus(t *testing.T) {
	assert.Equal(t, BonusStatusPending, DeriveBonusStatus(false, false))
	assert.Equal(t, BonusStatusPartial, DeriveBonusStatus(true, false))
	assert.Equal(t, BonusStatusPartial, DeriveBonusStatus(false, true))
	assert.Equal(t, BonusStatusPaid, DeriveBonusStatus(true, true))
}

func TestCalculateYearEndBonus(t *testing.T) {
	total, first, second, err := CalculateYearEndBonus(300001, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(300001), total)
	assert.Equal(t, int64(150000), first)
	assert.Equal(t, int64(150001), second)

	total, _, _, err = CalculateYearEndBonus(120000, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), total)

	_, _, _, err = CalculateYearEndBonus(120000, 13)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestBonusInstallmentRecord_Toggle(t *testing.T) {
	at := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	b, err := NewBonusInstallmentRecord(uuid.New(), 2026, 300000, 12)
	require.NoError(t, err)
	assert.Equal(t, BonusStatusPending, b.Status())

	changed, err := b.SetInstallmentPaid(InstallmentFirst, true, at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, BonusStatusPartial, b.Status())
	assert.Equal(t, at, *b.InstallmentPaidAt(InstallmentFirst))

	changed, err = b.SetInstallmentPaid(InstallmentFirst, true, at)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = b.SetInstallmentPaid(InstallmentSecond, true, at)
	require.NoError(t, err)
	assert.Equal(t, BonusStatusPaid, b.Status())

	_, err = b.SetInstallmentPaid(InstallmentFirst, false, at)
	require.NoError(t, err)
	assert.Equal(t, BonusStatusPartial, b.Status())
	assert.Nil(t, b.FirstPaidAt)

	_, err = b.SetInstallmentPaid(Installment(3), true, at)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestBonusInstallmentRecord_SetInstallmentAmount(t *testing.T) {
	b, err := NewBonusInstallmentRecord(uuid.New(), 2026, 300000, 12)
	require.NoError(t, err)

	require.NoError(t, b.SetInstallmentAmount(InstallmentSecond, 160000))
	assert.Equal(t, int64(310000), b.TotalEntitlement)

	b.SecondInstallment = 0
	_, err = b.SetInstallmentPaid(InstallmentSecond, true, time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestBonusInstallmentRecord_MarshalIncludesDerivedStatus(t *testing.T) {
	b, err := NewBonusInstallmentRecord(uuid.New(), 2026, 300000, 12)
	require.NoError(t, err)
	b.FirstPaid = true

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PARTIAL", decoded["status"])
	assert.Equal(t, true, decoded["first_paid"])
}
