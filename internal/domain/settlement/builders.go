package settlement

import (
	"fmt"

	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Rules turns payable records into settlement states. The locale and
// currency only shape the entry descriptions.
type Rules struct {
	locale   language.Tag
	currency valueobject.Currency
}

// NewRules creates Rules for the given locale and currency
func NewRules(locale language.Tag, currency valueobject.Currency) Rules {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return Rules{locale: locale, currency: currency}
}

// DefaultRules uses Brazilian Portuguese formatting and BRL
func DefaultRules() Rules {
	return NewRules(language.BrazilianPortuguese, valueobject.BRL)
}

// ForPayrollPayment maps a payroll payment (including projected vacation and
// bonus payments) to its settlement state. The ledger amount is the net total.
func (r Rules) ForPayrollPayment(p *payroll.PayrollPayment) State {
	paymentID := p.ID
	date := p.UpdatedAt
	if p.PaymentDate != nil {
		date = *p.PaymentDate
	}
	return State{
		Settled: p.IsSettled() && p.NetTotal > 0,
		Draft: finance.EntryDraft{
			Direction:        finance.DirectionOutflow,
			Amount:           p.NetTotal,
			Category:         paymentCategory(p.Kind),
			EntryDate:        date,
			PaymentMethod:    p.PaymentMethod,
			Description:      r.describePayment(p),
			CostCenter:       p.CostCenter,
			PayrollPaymentID: &paymentID,
		},
	}
}

// ForMaintenanceTask maps a maintenance task to its settlement state.
// Only the payment flag settles a task; its status only picks the amount.
func (r Rules) ForMaintenanceTask(m *fleet.MaintenanceTask) State {
	taskID := m.ID
	return State{
		Settled: m.IsSettled(),
		Draft: finance.EntryDraft{
			Direction:         finance.DirectionOutflow,
			Amount:            m.SettlementAmount(),
			Category:          finance.CategoryMaintenance,
			EntryDate:         m.SettlementDate(),
			PaymentMethod:     m.PaymentMethod,
			Description:       r.describeMaintenance(m),
			CostCenter:        m.CostCenter,
			MaintenanceTaskID: &taskID,
		},
	}
}

func (r Rules) describePayment(p *payroll.PayrollPayment) string {
	printer := message.NewPrinter(r.locale)
	amount := valueobject.NewMoney(p.NetTotal, r.currency).Format(r.locale)
	label := paymentLabel(p)
	return printer.Sprintf("%s %s (%s)", label, p.Competency.String(), amount)
}

func (r Rules) describeMaintenance(m *fleet.MaintenanceTask) string {
	printer := message.NewPrinter(r.locale)
	amount := valueobject.NewMoney(m.SettlementAmount(), r.currency).Format(r.locale)
	if m.Category == "" {
		return printer.Sprintf("Maintenance: %s (%s)", m.Description, amount)
	}
	return printer.Sprintf("Maintenance %s: %s (%s)", m.Category, m.Description, amount)
}

func paymentCategory(kind payroll.PaymentKind) finance.Category {
	switch kind {
	case payroll.PaymentKindVacation:
		return finance.CategoryVacation
	case payroll.PaymentKindYearEndBonus:
		return finance.CategoryYearEndBonus
	default:
		return finance.CategoryPayroll
	}
}

func paymentLabel(p *payroll.PayrollPayment) string {
	switch p.Kind {
	case payroll.PaymentKindSalary:
		return "Salary"
	case payroll.PaymentKindDailyRate:
		return "Daily rate"
	case payroll.PaymentKindCommission:
		return "Commission"
	case payroll.PaymentKindBonus:
		return "Bonus"
	case payroll.PaymentKindSeverance:
		return "Severance"
	case payroll.PaymentKindVacation:
		return "Vacation pay"
	case payroll.PaymentKindYearEndBonus:
		return fmt.Sprintf("13th salary installment %d", p.Installment)
	default:
		return string(p.Kind)
	}
}
