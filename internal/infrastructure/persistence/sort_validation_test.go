package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
		{"invalid value returns DESC", "sideways", "DESC"},
		{"injection attempt returns DESC", "ASC; DROP TABLE ledger_entries;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "entry_date"},
		{"whitelisted field is kept", "amount", "amount"},
		{"whitespace is trimmed", " category ", "category"},
		{"unknown field returns default", "payroll_payment_id", "entry_date"},
		{"case sensitive", "AMOUNT", "entry_date"},
		{"injection attempt returns default", "amount; DROP TABLE ledger_entries;--", "entry_date"},
		{"subquery returns default", "(SELECT password_hash FROM operators)", "entry_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, LedgerEntrySortFields, "entry_date"))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"PayrollPaymentSortFields":   PayrollPaymentSortFields,
		"VacationPeriodSortFields":   VacationPeriodSortFields,
		"BonusInstallmentSortFields": BonusInstallmentSortFields,
		"MaintenanceTaskSortFields":  MaintenanceTaskSortFields,
		"LedgerEntrySortFields":      LedgerEntrySortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			for field := range CommonSortFields {
				assert.True(t, whitelist[field], "%s should contain %q", name, field)
			}
		})
	}
}
