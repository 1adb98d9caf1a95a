package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PayrollPaymentResponse represents a payroll payment in API responses
type PayrollPaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	EmployeeID        uuid.UUID       `json:"employee_id"`
	Competency        string          `json:"competency"`
	Kind              string          `json:"kind"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	Additions         decimal.Decimal `json:"additions"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	OvertimeValue     decimal.Decimal `json:"overtime_value"`
	Deductions        decimal.Decimal `json:"deductions"`
	AdvanceDeductions decimal.Decimal `json:"advance_deductions"`
	GrossTotal        decimal.Decimal `json:"gross_total"`
	NetTotal          decimal.Decimal `json:"net_total"`
	Status            string          `json:"status"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	CostCenter        string          `json:"cost_center,omitempty"`
	Description       string          `json:"description,omitempty"`
	SourceKind        string          `json:"source_kind,omitempty"`
	SourceID          *uuid.UUID      `json:"source_id,omitempty"`
	Installment       int             `json:"installment,omitempty"`
	ReadOnly          bool            `json:"read_only"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// CreatePayrollPaymentRequest represents a request to create a payroll payment
type CreatePayrollPaymentRequest struct {
	EmployeeID        uuid.UUID       `json:"employee_id" binding:"required"`
	Competency        string          `json:"competency" binding:"required,yearmonth"`
	Kind              string          `json:"kind" binding:"required"`
	Status            string          `json:"status" binding:"omitempty,oneof=SIMULATED PENDING"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	Additions         decimal.Decimal `json:"additions"`
	OvertimeHours     decimal.Decimal `json:"overtime_hours"`
	OvertimeValue     decimal.Decimal `json:"overtime_value"`
	Deductions        decimal.Decimal `json:"deductions"`
	AdvanceDeductions decimal.Decimal `json:"advance_deductions"`
	PaymentMethod     string          `json:"payment_method" binding:"max=50"`
	CostCenter        string          `json:"cost_center" binding:"max=100"`
	Description       string          `json:"description" binding:"max=500"`
}

// UpdatePayrollPaymentRequest represents a partial update of a payroll payment.
// Omitted fields are left untouched.
type UpdatePayrollPaymentRequest struct {
	Status            *string          `json:"status"`
	BaseAmount        *decimal.Decimal `json:"base_amount"`
	Additions         *decimal.Decimal `json:"additions"`
	OvertimeHours     *decimal.Decimal `json:"overtime_hours"`
	OvertimeValue     *decimal.Decimal `json:"overtime_value"`
	Deductions        *decimal.Decimal `json:"deductions"`
	AdvanceDeductions *decimal.Decimal `json:"advance_deductions"`
	PaymentDate       *time.Time       `json:"payment_date"`
	PaymentMethod     *string          `json:"payment_method" binding:"omitempty,max=50"`
	CostCenter        *string          `json:"cost_center" binding:"omitempty,max=100"`
	Description       *string          `json:"description" binding:"omitempty,max=500"`
}

// PayrollPaymentListFilter defines filtering options for payroll payment lists
type PayrollPaymentListFilter struct {
	ListFilter
	EmployeeID *uuid.UUID `form:"employee_id"`
	Competency string     `form:"competency" binding:"omitempty,yearmonth"`
	Kind       string     `form:"kind"`
	Status     string     `form:"status"`
}

// CreatePayrollPayment creates a SIMULATED or PENDING payment. Payments are
// never created settled; paying one is a status change.
func (s *Service) CreatePayrollPayment(ctx context.Context, req CreatePayrollPaymentRequest, actor *uuid.UUID) (*ChangeResponse[PayrollPaymentResponse], error) {
	competency, err := valueobject.ParseYearMonth(req.Competency)
	if err != nil {
		return nil, shared.NewValidationError("%s", err.Error())
	}

	payment, err := payroll.NewPayrollPayment(
		req.EmployeeID,
		competency,
		payroll.PaymentKind(req.Kind),
		payroll.Amounts{
			BaseAmount:        s.toCents(req.BaseAmount),
			Additions:         s.toCents(req.Additions),
			OvertimeHours:     req.OvertimeHours,
			OvertimeValue:     s.toCents(req.OvertimeValue),
			Deductions:        s.toCents(req.Deductions),
			AdvanceDeductions: s.toCents(req.AdvanceDeductions),
		},
		payroll.PaymentStatus(req.Status),
	)
	if err != nil {
		return nil, err
	}
	payment.PaymentMethod = req.PaymentMethod
	payment.CostCenter = req.CostCenter
	payment.Description = req.Description

	result, err := s.engine.CreatePayrollPayment(ctx, payment, actor)
	if err != nil {
		return nil, err
	}
	return toChangeResponse(result, toPayrollPaymentResponse(payment)), nil
}

// UpdatePayrollPayment applies a partial update and reconciles the ledger
func (s *Service) UpdatePayrollPayment(ctx context.Context, id uuid.UUID, req UpdatePayrollPaymentRequest, actor *uuid.UUID) (*ChangeResponse[PayrollPaymentResponse], error) {
	result, err := s.engine.ApplyPayrollPaymentChange(ctx, id, s.payrollChange(req), actor)
	if err != nil {
		return nil, err
	}
	return s.payrollChangeResponse(result)
}

func (s *Service) payrollChange(req UpdatePayrollPaymentRequest) reconciliation.PayrollPaymentChange {
	change := reconciliation.PayrollPaymentChange{
		BaseAmount:        s.optionalCents(req.BaseAmount),
		Additions:         s.optionalCents(req.Additions),
		OvertimeHours:     req.OvertimeHours,
		OvertimeValue:     s.optionalCents(req.OvertimeValue),
		Deductions:        s.optionalCents(req.Deductions),
		AdvanceDeductions: s.optionalCents(req.AdvanceDeductions),
		PaymentDate:       req.PaymentDate,
		PaymentMethod:     req.PaymentMethod,
		CostCenter:        req.CostCenter,
		Description:       req.Description,
	}
	if req.Status != nil {
		status := payroll.PaymentStatus(*req.Status)
		change.Status = &status
	}
	return change
}

func (s *Service) payrollChangeResponse(result *reconciliation.Result) (*ChangeResponse[PayrollPaymentResponse], error) {
	p, ok := result.Record.(*payroll.PayrollPayment)
	if !ok {
		return toChangeResponse[PayrollPaymentResponse](result, nil), nil
	}
	return toChangeResponse(result, toPayrollPaymentResponse(p)), nil
}

// GetPayrollPayment gets a payroll payment by ID
func (s *Service) GetPayrollPayment(ctx context.Context, id uuid.UUID) (*PayrollPaymentResponse, error) {
	p, err := s.repos.Payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPayrollPaymentResponse(p), nil
}

// ListPayrollPayments lists payroll payments with filtering and pagination
func (s *Service) ListPayrollPayments(ctx context.Context, filter PayrollPaymentListFilter) (*shared.Paginated[PayrollPaymentResponse], error) {
	domainFilter := payroll.PaymentFilter{
		Filter:     filter.toDomain(),
		EmployeeID: filter.EmployeeID,
	}
	if filter.Competency != "" {
		competency, err := valueobject.ParseYearMonth(filter.Competency)
		if err != nil {
			return nil, shared.NewValidationError("%s", err.Error())
		}
		domainFilter.Competency = &competency
	}
	if filter.Kind != "" {
		kind := payroll.PaymentKind(filter.Kind)
		domainFilter.Kind = &kind
	}
	if filter.Status != "" {
		status := payroll.PaymentStatus(filter.Status)
		domainFilter.Status = &status
	}

	payments, err := s.repos.Payments.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Payments.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]PayrollPaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, *toPayrollPaymentResponse(&payments[i]))
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// DeletePayrollPayment deletes a payment and its ledger entry
func (s *Service) DeletePayrollPayment(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*ChangeResponse[PayrollPaymentResponse], error) {
	result, err := s.engine.DeleteRecord(ctx, reconciliation.RecordKindPayrollPayment, id, actor)
	if err != nil {
		return nil, err
	}
	return s.payrollChangeResponse(result)
}

func toPayrollPaymentResponse(p *payroll.PayrollPayment) *PayrollPaymentResponse {
	return &PayrollPaymentResponse{
		ID:                p.ID,
		EmployeeID:        p.EmployeeID,
		Competency:        p.Competency.String(),
		Kind:              string(p.Kind),
		BaseAmount:        toDecimal(p.BaseAmount),
		Additions:         toDecimal(p.Additions),
		OvertimeHours:     p.OvertimeHours,
		OvertimeValue:     toDecimal(p.OvertimeValue),
		Deductions:        toDecimal(p.Deductions),
		AdvanceDeductions: toDecimal(p.AdvanceDeductions),
		GrossTotal:        toDecimal(p.GrossTotal),
		NetTotal:          toDecimal(p.NetTotal),
		Status:            string(p.Status),
		PaymentDate:       p.PaymentDate,
		PaymentMethod:     p.PaymentMethod,
		CostCenter:        p.CostCenter,
		Description:       p.Description,
		SourceKind:        string(p.SourceKind),
		SourceID:          p.SourceID,
		Installment:       p.Installment,
		ReadOnly:          p.IsProjection(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}
