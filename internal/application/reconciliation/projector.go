package reconciliation

import (
	"time"

	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
)

// Projector derives the PAID payroll payments that mirror settled vacations
// and year-end bonus installments. It never touches the ledger itself; the
// projected payment is settled like any other payment.
type Projector struct{}

// ProjectVacation builds the VACATION payment for a paid vacation period.
// Its amount includes the one-third bonus.
func (Projector) ProjectVacation(v *payroll.VacationPeriod) (*payroll.PayrollPayment, error) {
	paidAt := v.PaymentDate()
	return payroll.NewProjectedPayment(
		v.EmployeeID,
		vacationCompetency(v, paidAt),
		payroll.PaymentKindVacation,
		v.SettledAmount(),
		payroll.SourceKindVacation,
		v.ID,
		0,
		paidAt,
	)
}

// ProjectBonusInstallment builds the YEAR_END_BONUS payment for a paid installment
func (Projector) ProjectBonusInstallment(b *payroll.BonusInstallmentRecord, n payroll.Installment, at time.Time) (*payroll.PayrollPayment, error) {
	paidAt := bonusPaidAt(b, n, at)
	return payroll.NewProjectedPayment(
		b.EmployeeID,
		valueobject.YearMonthOf(paidAt),
		payroll.PaymentKindYearEndBonus,
		b.InstallmentAmount(n),
		payroll.SourceKindYearEndBonus,
		b.ID,
		int(n),
		paidAt,
	)
}

// SyncVacation refreshes an existing projection after its vacation changed.
// It reports whether the projection was modified.
func (Projector) SyncVacation(p *payroll.PayrollPayment, v *payroll.VacationPeriod, at time.Time) (bool, error) {
	paidAt := v.PaymentDate()
	return syncProjection(p, v.SettledAmount(), vacationCompetency(v, paidAt), paidAt, at)
}

// SyncBonusInstallment refreshes an existing projection after its installment changed
func (Projector) SyncBonusInstallment(p *payroll.PayrollPayment, b *payroll.BonusInstallmentRecord, n payroll.Installment, at time.Time) (bool, error) {
	paidAt := bonusPaidAt(b, n, at)
	return syncProjection(p, b.InstallmentAmount(n), valueobject.YearMonthOf(paidAt), paidAt, at)
}

func syncProjection(p *payroll.PayrollPayment, amount int64, competency valueobject.YearMonth, paidAt, at time.Time) (bool, error) {
	changed := false
	if p.NetTotal != amount || p.GrossTotal != amount {
		if err := p.SetAmounts(payroll.Amounts{BaseAmount: amount}); err != nil {
			return false, err
		}
		changed = true
	}
	if p.Competency != competency {
		p.Competency = competency
		changed = true
	}
	if p.PaymentDate == nil || !p.PaymentDate.Equal(paidAt) {
		p.PaymentDate = &paidAt
		changed = true
	}
	if changed {
		p.UpdatedAt = at
	}
	return changed, nil
}

func vacationCompetency(v *payroll.VacationPeriod, paidAt time.Time) valueobject.YearMonth {
	if v.LeaveStart != nil {
		return valueobject.YearMonthOf(*v.LeaveStart)
	}
	return valueobject.YearMonthOf(paidAt)
}

func bonusPaidAt(b *payroll.BonusInstallmentRecord, n payroll.Installment, at time.Time) time.Time {
	if paidAt := b.InstallmentPaidAt(n); paidAt != nil {
		return *paidAt
	}
	return at
}
