package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID                uuid.UUID       `json:"id"`
	Direction         string          `json:"direction"`
	Amount            decimal.Decimal `json:"amount"`
	SignedAmount      decimal.Decimal `json:"signed_amount"`
	Category          string          `json:"category"`
	EntryDate         time.Time       `json:"entry_date"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	Description       string          `json:"description"`
	CostCenter        string          `json:"cost_center,omitempty"`
	PayrollPaymentID  *uuid.UUID      `json:"payroll_payment_id,omitempty"`
	MaintenanceTaskID *uuid.UUID      `json:"maintenance_task_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// LedgerListFilter defines filtering options for ledger entry lists
type LedgerListFilter struct {
	ListFilter
	Direction string     `form:"direction" binding:"omitempty,oneof=INFLOW OUTFLOW"`
	Category  string     `form:"category"`
	FromDate  *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate    *time.Time `form:"to_date" time_format:"2006-01-02"`
}

// CashFlowRequest selects the period of a cash-flow summary
type CashFlowRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02"`
}

// CashFlowLineResponse is one category/direction total
type CashFlowLineResponse struct {
	Category  string          `json:"category"`
	Direction string          `json:"direction"`
	Total     decimal.Decimal `json:"total"`
	Count     int64           `json:"count"`
}

// CashFlowResponse is the cash-flow summary of a period
type CashFlowResponse struct {
	From    time.Time              `json:"from"`
	To      time.Time              `json:"to"`
	Inflow  decimal.Decimal        `json:"inflow"`
	Outflow decimal.Decimal        `json:"outflow"`
	Net     decimal.Decimal        `json:"net"`
	Lines   []CashFlowLineResponse `json:"lines"`
}

// GetLedgerEntry gets a ledger entry by ID
func (s *Service) GetLedgerEntry(ctx context.Context, id uuid.UUID) (*LedgerEntryResponse, error) {
	entry, err := s.repos.Ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLedgerEntryResponse(entry), nil
}

// ListLedgerEntries lists ledger entries with filtering and pagination
func (s *Service) ListLedgerEntries(ctx context.Context, filter LedgerListFilter) (*shared.Paginated[LedgerEntryResponse], error) {
	domainFilter := finance.LedgerFilter{
		Filter:   filter.toDomain(),
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "entry_date"
	}
	if filter.Direction != "" {
		direction := finance.Direction(filter.Direction)
		domainFilter.Direction = &direction
	}
	if filter.Category != "" {
		category := finance.Category(filter.Category)
		if !category.IsValid() {
			return nil, shared.NewValidationError("invalid ledger category %q", filter.Category)
		}
		domainFilter.Category = &category
	}

	entries, err := s.repos.Ledger.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Ledger.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, *toLedgerEntryResponse(&entries[i]))
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// CashFlow totals the ledger by category and direction over [from, to]
func (s *Service) CashFlow(ctx context.Context, req CashFlowRequest) (*CashFlowResponse, error) {
	from, to := finance.DateOf(req.From), finance.DateOf(req.To)
	if to.Before(from) {
		return nil, shared.NewValidationError("cash-flow period ends before it starts")
	}

	lines, err := s.repos.Ledger.SummarizeCashFlow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary := finance.NewCashFlowSummary(from, to, lines)

	resp := &CashFlowResponse{
		From:    summary.From,
		To:      summary.To,
		Inflow:  toDecimal(summary.Inflow),
		Outflow: toDecimal(summary.Outflow),
		Net:     toDecimal(summary.Net),
		Lines:   make([]CashFlowLineResponse, 0, len(summary.Lines)),
	}
	for _, l := range summary.Lines {
		resp.Lines = append(resp.Lines, CashFlowLineResponse{
			Category:  string(l.Category),
			Direction: string(l.Direction),
			Total:     toDecimal(l.Total),
			Count:     l.Count,
		})
	}
	return resp, nil
}

func toLedgerEntryResponse(e *finance.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:                e.ID,
		Direction:         string(e.Direction),
		Amount:            toDecimal(e.Amount),
		SignedAmount:      toDecimal(e.SignedAmount()),
		Category:          string(e.Category),
		EntryDate:         e.EntryDate,
		PaymentMethod:     e.PaymentMethod,
		Description:       e.Description,
		CostCenter:        e.CostCenter,
		PayrollPaymentID:  e.PayrollPaymentID,
		MaintenanceTaskID: e.MaintenanceTaskID,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Version:           e.Version,
	}
}
