package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// YearEndBonusResponse represents a year-end bonus record in API responses
type YearEndBonusResponse struct {
	ID                uuid.UUID       `json:"id"`
	EmployeeID        uuid.UUID       `json:"employee_id"`
	ReferenceYear     int             `json:"reference_year"`
	MonthsWorked      int             `json:"months_worked"`
	MonthlySalary     decimal.Decimal `json:"monthly_salary"`
	TotalEntitlement  decimal.Decimal `json:"total_entitlement"`
	FirstInstallment  decimal.Decimal `json:"first_installment"`
	SecondInstallment decimal.Decimal `json:"second_installment"`
	FirstPaid         bool            `json:"first_paid"`
	SecondPaid        bool            `json:"second_paid"`
	FirstPaidAt       *time.Time      `json:"first_paid_at,omitempty"`
	SecondPaidAt      *time.Time      `json:"second_paid_at,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// GenerateYearEndBonusRequest represents a request to generate a year-end bonus
type GenerateYearEndBonusRequest struct {
	EmployeeID    uuid.UUID       `json:"employee_id" binding:"required"`
	ReferenceYear int             `json:"reference_year" binding:"required,min=1900"`
	MonthlySalary decimal.Decimal `json:"monthly_salary" binding:"required"`
	MonthsWorked  int             `json:"months_worked" binding:"required,min=1,max=12"`
}

// UpdateInstallmentsRequest toggles installment flags and amounts. Status is
// accepted so that an attempt to set it can be rejected explicitly.
type UpdateInstallmentsRequest struct {
	Status       *string          `json:"status"`
	FirstPaid    *bool            `json:"first_paid"`
	SecondPaid   *bool            `json:"second_paid"`
	FirstAmount  *decimal.Decimal `json:"first_amount"`
	SecondAmount *decimal.Decimal `json:"second_amount"`
}

// YearEndBonusListFilter defines filtering options for year-end bonus lists
type YearEndBonusListFilter struct {
	ListFilter
	EmployeeID    *uuid.UUID `form:"employee_id"`
	ReferenceYear *int       `form:"reference_year"`
	Status        string     `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID"`
}

// GenerateYearEndBonus computes the entitlement and splits it into two
// installments, both unpaid.
func (s *Service) GenerateYearEndBonus(ctx context.Context, req GenerateYearEndBonusRequest, actor *uuid.UUID) (*ChangeResponse[YearEndBonusResponse], error) {
	record, err := payroll.NewBonusInstallmentRecord(req.EmployeeID, req.ReferenceYear, s.toCents(req.MonthlySalary), req.MonthsWorked)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.CreateBonusRecord(ctx, record, actor)
	if err != nil {
		return nil, err
	}
	return toChangeResponse(result, toYearEndBonusResponse(record)), nil
}

// UpdateInstallments pays or unpays installments. Each paid installment is
// projected into its own payroll payment and ledger entry.
func (s *Service) UpdateInstallments(ctx context.Context, id uuid.UUID, req UpdateInstallmentsRequest, actor *uuid.UUID) (*ChangeResponse[YearEndBonusResponse], error) {
	result, err := s.engine.ApplyBonusInstallmentChange(ctx, id, s.bonusChange(req), actor)
	if err != nil {
		return nil, err
	}
	return bonusChangeResponse(result), nil
}

func (s *Service) bonusChange(req UpdateInstallmentsRequest) reconciliation.BonusInstallmentChange {
	return reconciliation.BonusInstallmentChange{
		Status:       req.Status,
		FirstPaid:    req.FirstPaid,
		SecondPaid:   req.SecondPaid,
		FirstAmount:  s.optionalCents(req.FirstAmount),
		SecondAmount: s.optionalCents(req.SecondAmount),
	}
}

// GetYearEndBonus gets a year-end bonus record by ID
func (s *Service) GetYearEndBonus(ctx context.Context, id uuid.UUID) (*YearEndBonusResponse, error) {
	record, err := s.repos.Bonuses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toYearEndBonusResponse(record), nil
}

// ListYearEndBonuses lists year-end bonus records with filtering and pagination
func (s *Service) ListYearEndBonuses(ctx context.Context, filter YearEndBonusListFilter) (*shared.Paginated[YearEndBonusResponse], error) {
	domainFilter := payroll.BonusFilter{
		Filter:        filter.toDomain(),
		EmployeeID:    filter.EmployeeID,
		ReferenceYear: filter.ReferenceYear,
	}
	if filter.Status != "" {
		status := payroll.BonusStatus(filter.Status)
		domainFilter.Status = &status
	}

	records, err := s.repos.Bonuses.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Bonuses.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]YearEndBonusResponse, 0, len(records))
	for i := range records {
		items = append(items, *toYearEndBonusResponse(&records[i]))
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// DeleteYearEndBonus deletes a record with both projected installments
func (s *Service) DeleteYearEndBonus(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*ChangeResponse[YearEndBonusResponse], error) {
	result, err := s.engine.DeleteRecord(ctx, reconciliation.RecordKindBonusInstallment, id, actor)
	if err != nil {
		return nil, err
	}
	return bonusChangeResponse(result), nil
}

func bonusChangeResponse(result *reconciliation.Result) *ChangeResponse[YearEndBonusResponse] {
	if b, ok := result.Record.(*payroll.BonusInstallmentRecord); ok {
		return toChangeResponse(result, toYearEndBonusResponse(b))
	}
	return toChangeResponse[YearEndBonusResponse](result, nil)
}

func toYearEndBonusResponse(b *payroll.BonusInstallmentRecord) *YearEndBonusResponse {
	return &YearEndBonusResponse{
		ID:                b.ID,
		EmployeeID:        b.EmployeeID,
		ReferenceYear:     b.ReferenceYear,
		MonthsWorked:      b.MonthsWorked,
		MonthlySalary:     toDecimal(b.MonthlySalary),
		TotalEntitlement:  toDecimal(b.TotalEntitlement),
		FirstInstallment:  toDecimal(b.FirstInstallment),
		SecondInstallment: toDecimal(b.SecondInstallment),
		FirstPaid:         b.FirstPaid,
		SecondPaid:        b.SecondPaid,
		FirstPaidAt:       b.FirstPaidAt,
		SecondPaidAt:      b.SecondPaidAt,
		Status:            string(b.Status()),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		Version:           b.Version,
	}
}
