package persistence

import (
	"strings"

	"github.com/opsledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to every table
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// PayrollPaymentSortFields contains allowed sort fields for payroll payments
var PayrollPaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"competency":   true,
	"kind":         true,
	"status":       true,
	"net_total":    true,
	"payment_date": true,
}

// VacationPeriodSortFields contains allowed sort fields for vacation periods
var VacationPeriodSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"acquisition_start": true,
	"leave_start":       true,
	"status":            true,
}

// BonusInstallmentSortFields contains allowed sort fields for year-end bonus records
var BonusInstallmentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"reference_year": true,
	"monthly_salary": true,
}

// MaintenanceTaskSortFields contains allowed sort fields for maintenance tasks
var MaintenanceTaskSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"scheduled_date": true,
	"completed_date": true,
	"priority":       true,
	"status":         true,
	"estimated_cost": true,
}

// LedgerEntrySortFields contains allowed sort fields for ledger entries
var LedgerEntrySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"entry_date": true,
	"amount":     true,
	"category":   true,
}

// paginate applies whitelisted ordering and page limits
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}
