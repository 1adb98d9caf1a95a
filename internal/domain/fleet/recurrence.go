package fleet

import (
	"time"

	"github.com/opsledger/backend/internal/domain/shared"
)

// DefaultFallbackHorizon is used for km-only recurrence, where the next due
// date cannot be derived from a day interval.
const DefaultFallbackHorizon = 6

// RecurrencePolicy decides the scheduled date of a task's next occurrence
type RecurrencePolicy struct {
	// FallbackMonths is added to the current time when no day interval exists
	FallbackMonths int
}

// DefaultRecurrencePolicy returns the policy with the six-month fallback
func DefaultRecurrencePolicy() RecurrencePolicy {
	return RecurrencePolicy{FallbackMonths: DefaultFallbackHorizon}
}

// NextDate returns when the next occurrence of a completed task is due: the
// completion date plus the day interval, or now plus the fallback horizon
// for km-only recurrence. It reports false when the task does not recur.
func (p RecurrencePolicy) NextDate(task *MaintenanceTask, now time.Time) (time.Time, bool) {
	if !task.Recurring || task.Status != MaintenanceStatusCompleted {
		return time.Time{}, false
	}
	days, km := positive(task.IntervalDays), positive(task.IntervalKm)
	if days == 0 && km == 0 {
		return time.Time{}, false
	}

	if days > 0 {
		base := now
		if task.CompletedDate != nil {
			base = *task.CompletedDate
		}
		return base.AddDate(0, 0, days), true
	}
	months := p.FallbackMonths
	if months <= 0 {
		months = DefaultFallbackHorizon
	}
	return now.AddDate(0, months, 0), true
}

// NextOccurrence builds the PENDING task that follows a completed recurring
// task. The returned task has no payment, no final cost and no completion
// date, and links back to task through RecurredFromID.
func (p RecurrencePolicy) NextOccurrence(task *MaintenanceTask, now time.Time) (*MaintenanceTask, error) {
	if task.Status != MaintenanceStatusCompleted {
		return nil, shared.NewInvalidTransitionError("maintenance recurrence", string(task.Status), string(MaintenanceStatusCompleted))
	}
	scheduled, ok := p.NextDate(task, now)
	if !ok {
		return nil, shared.NewValidationError("maintenance task %s does not recur", task.ID)
	}

	next, err := NewMaintenanceTask(task.VehicleID, task.Type, task.Category, task.Description, task.Priority, scheduled)
	if err != nil {
		return nil, err
	}
	sourceID := task.ID
	next.Recurring = true
	next.IntervalDays = copyInt(task.IntervalDays)
	next.IntervalKm = copyInt(task.IntervalKm)
	next.EstimatedCost = task.EstimatedCost
	next.PaymentMethod = task.PaymentMethod
	next.SupplierID = task.SupplierID
	next.CostCenter = task.CostCenter
	next.RecurredFromID = &sourceID
	next.CreatedAt, next.UpdatedAt = now, now
	return next, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
