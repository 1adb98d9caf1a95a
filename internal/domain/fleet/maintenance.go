package fleet

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
)

// AggregateTypeMaintenanceTask is the aggregate type name used in events and audit logs
const AggregateTypeMaintenanceTask = "MaintenanceTask"

// MaintenanceType classifies the intervention
type MaintenanceType string

const (
	MaintenanceTypePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceTypeCorrective MaintenanceType = "CORRECTIVE"
	MaintenanceTypePredictive MaintenanceType = "PREDICTIVE"
)

// IsValid checks if the type is a valid MaintenanceType
func (t MaintenanceType) IsValid() bool {
	switch t {
	case MaintenanceTypePreventive, MaintenanceTypeCorrective, MaintenanceTypePredictive:
		return true
	}
	return false
}

// Priority is the urgency of a maintenance task
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid checks if the priority is a valid Priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceStatus is the lifecycle state of a maintenance task
type MaintenanceStatus string

const (
	MaintenanceStatusPending   MaintenanceStatus = "PENDING"
	MaintenanceStatusScheduled MaintenanceStatus = "SCHEDULED"
	MaintenanceStatusCompleted MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled MaintenanceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid MaintenanceStatus
func (s MaintenanceStatus) IsValid() bool {
	switch s {
	case MaintenanceStatusPending, MaintenanceStatusScheduled, MaintenanceStatusCompleted, MaintenanceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no transition may leave the status
func (s MaintenanceStatus) IsTerminal() bool {
	return s == MaintenanceStatusCompleted || s == MaintenanceStatusCancelled
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s MaintenanceStatus) CanTransitionTo(next MaintenanceStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	return next != s
}

// MaintenanceTask is a vehicle maintenance job. Its payment flag, not its
// status, decides whether it is mirrored in the ledger.
type MaintenanceTask struct {
	shared.BaseAggregateRoot
	VehicleID      uuid.UUID         `json:"vehicle_id"`
	Type           MaintenanceType   `json:"type"`
	Category       string            `json:"category"`
	Description    string            `json:"description"`
	Priority       Priority          `json:"priority"`
	ScheduledDate  time.Time         `json:"scheduled_date"`
	CompletedDate  *time.Time        `json:"completed_date,omitempty"`
	Recurring      bool              `json:"recurring"`
	IntervalDays   *int              `json:"interval_days,omitempty"`
	IntervalKm     *int              `json:"interval_km,omitempty"`
	OdometerKm     *int              `json:"odometer_km,omitempty"`
	EstimatedCost  int64             `json:"estimated_cost"`
	FinalCost      *int64            `json:"final_cost,omitempty"`
	IsPaid         bool              `json:"is_paid"`
	PaymentMethod  string            `json:"payment_method"`
	Status         MaintenanceStatus `json:"status"`
	SupplierID     *uuid.UUID        `json:"supplier_id,omitempty"`
	CostCenter     string            `json:"cost_center"`
	Active         bool              `json:"active"`
	RecurredFromID *uuid.UUID        `json:"recurred_from_id,omitempty"`
}

// NewMaintenanceTask creates an active PENDING task due on scheduledDate
func NewMaintenanceTask(vehicleID uuid.UUID, maintenanceType MaintenanceType, category, description string, priority Priority, scheduledDate time.Time) (*MaintenanceTask, error) {
	if vehicleID == uuid.Nil {
		return nil, shared.NewValidationError("vehicle id is required")
	}
	if scheduledDate.IsZero() {
		return nil, shared.NewValidationError("scheduled date is required")
	}
	if !maintenanceType.IsValid() {
		return nil, shared.NewValidationError("invalid maintenance type %q", maintenanceType)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewValidationError("invalid priority %q", priority)
	}
	if description == "" {
		return nil, shared.NewValidationError("description is required")
	}
	return &MaintenanceTask{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VehicleID:         vehicleID,
		Type:              maintenanceType,
		Category:          category,
		Description:       description,
		Priority:          priority,
		ScheduledDate:     scheduledDate.UTC(),
		Status:            MaintenanceStatusPending,
		Active:            true,
	}, nil
}

// Validate checks the cross-field invariants
func (m *MaintenanceTask) Validate() error {
	if m.ScheduledDate.IsZero() {
		return shared.NewValidationError("scheduled date is required")
	}
	if m.EstimatedCost < 0 {
		return shared.NewValidationError("estimated cost cannot be negative")
	}
	if m.FinalCost != nil && *m.FinalCost < 0 {
		return shared.NewValidationError("final cost cannot be negative")
	}
	if m.IntervalDays != nil && *m.IntervalDays < 0 {
		return shared.NewValidationError("interval days cannot be negative")
	}
	if m.IntervalKm != nil && *m.IntervalKm < 0 {
		return shared.NewValidationError("interval km cannot be negative")
	}
	if m.Recurring && positive(m.IntervalDays) == 0 && positive(m.IntervalKm) == 0 {
		return shared.NewValidationError("a recurring task needs an interval in days or km")
	}
	return nil
}

// EnsureActive rejects changes to soft-deleted tasks
func (m *MaintenanceTask) EnsureActive() error {
	if !m.Active {
		return shared.NewInvalidTransitionError("maintenance task", "INACTIVE", "changed")
	}
	return nil
}

// TransitionTo moves the task to next. Completing it stamps the completion
// date when none was given. It reports false without error when the task
// is already in that status.
func (m *MaintenanceTask) TransitionTo(next MaintenanceStatus, at time.Time) (bool, error) {
	if !next.IsValid() {
		return false, shared.NewValidationError("invalid maintenance status %q", next)
	}
	if next == m.Status {
		return false, nil
	}
	if !m.Status.CanTransitionTo(next) {
		return false, shared.NewInvalidTransitionError("maintenance task", string(m.Status), string(next))
	}
	if next == MaintenanceStatusCompleted && m.CompletedDate == nil {
		completed := at
		m.CompletedDate = &completed
	}
	m.Status = next
	m.UpdatedAt = at
	return true, nil
}

// SettlementAmount is the estimated cost until completion, then the final
// cost falling back to the estimate.
func (m *MaintenanceTask) SettlementAmount() int64 {
	if m.Status == MaintenanceStatusCompleted && m.FinalCost != nil {
		return *m.FinalCost
	}
	return m.EstimatedCost
}

// IsSettled reports whether the task must be mirrored by a ledger entry
func (m *MaintenanceTask) IsSettled() bool {
	return m.Active && m.IsPaid && m.SettlementAmount() > 0
}

// SettlementDate is the completion date, or the scheduled date while the
// task is open. It never depends on when the task was last edited.
func (m *MaintenanceTask) SettlementDate() time.Time {
	if m.CompletedDate != nil {
		return *m.CompletedDate
	}
	return m.ScheduledDate
}

// Deactivate soft-deletes the task
func (m *MaintenanceTask) Deactivate(at time.Time) {
	m.Active = false
	m.UpdatedAt = at
}

func positive(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
