package records

import (
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repositories groups the read-side repositories used outside engine transactions
type Repositories struct {
	Payments    payroll.PayrollPaymentRepository
	Vacations   payroll.VacationPeriodRepository
	Bonuses     payroll.BonusInstallmentRepository
	Maintenance fleet.MaintenanceTaskRepository
	Ledger      finance.LedgerEntryRepository
}

// Service provides the record workflows exposed over HTTP. Every write goes
// through the reconciliation engine; reads hit the repositories directly.
type Service struct {
	engine   *reconciliation.Engine
	repos    Repositories
	currency valueobject.Currency
	logger   *zap.Logger
}

// NewService creates a new record workflow service
func NewService(
	engine *reconciliation.Engine,
	repos Repositories,
	currency valueobject.Currency,
	logger *zap.Logger,
) *Service {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Service{
		engine:   engine,
		repos:    repos,
		currency: currency,
		logger:   logger,
	}
}

// ListFilter carries the pagination query parameters shared by every list
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ListFilter) toDomain() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	switch {
	case f.PageSize > maxPageSize:
		filter.PageSize = maxPageSize
	case f.PageSize > 0:
		filter.PageSize = f.PageSize
	default:
		filter.PageSize = defaultPageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	return filter
}

// LedgerChangeResponse is one ledger mutation in a change response
type LedgerChangeResponse struct {
	Action    string          `json:"action"`
	EntryID   uuid.UUID       `json:"entry_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaymentID *uuid.UUID      `json:"payment_id,omitempty"`
}

// ChangeResponse reports what a write did
type ChangeResponse[T any] struct {
	Kind             string                 `json:"kind"`
	RecordID         uuid.UUID              `json:"record_id"`
	Outcome          string                 `json:"outcome"`
	Record           *T                     `json:"record,omitempty"`
	LedgerChanges    []LedgerChangeResponse `json:"ledger_changes"`
	NextOccurrenceID *uuid.UUID             `json:"next_occurrence_id,omitempty"`
}

func toChangeResponse[T any](result *reconciliation.Result, record *T) *ChangeResponse[T] {
	changes := make([]LedgerChangeResponse, 0, len(result.LedgerChanges))
	for _, c := range result.LedgerChanges {
		changes = append(changes, LedgerChangeResponse{
			Action:    string(c.Action),
			EntryID:   c.EntryID,
			Amount:    toDecimal(c.Amount),
			PaymentID: c.PaymentID,
		})
	}
	return &ChangeResponse[T]{
		Kind:             string(result.Kind),
		RecordID:         result.RecordID,
		Outcome:          string(result.Outcome),
		Record:           record,
		LedgerChanges:    changes,
		NextOccurrenceID: result.NextOccurrenceID,
	}
}

// toCents converts a major-unit amount to minor units in the service currency
func (s *Service) toCents(amount decimal.Decimal) int64 {
	return valueobject.FromDecimal(amount, s.currency).Cents()
}

func (s *Service) optionalCents(amount *decimal.Decimal) *int64 {
	if amount == nil {
		return nil
	}
	cents := s.toCents(*amount)
	return &cents
}

func toDecimal(cents int64) decimal.Decimal {
	return valueobject.Cents(cents).Decimal()
}

func optionalDecimal(cents *int64) *decimal.Decimal {
	if cents == nil {
		return nil
	}
	d := toDecimal(*cents)
	return &d
}
