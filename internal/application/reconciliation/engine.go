package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "opsledger-backend/reconciliation"

// Engine is the single entry point for changes that can affect the ledger.
// Every operation loads the record and its linked entries, applies the
// change, runs the settlement rules and writes record and ledger in one
// transaction. Audit notifications go out after the commit.
type Engine struct {
	txScope    TransactionScope
	publisher  shared.EventPublisher
	recurrence *RecurrenceGenerator
	rules      settlement.Rules
	projector  Projector
	metrics    Metrics
	now        func() time.Time
	logger     *zap.Logger
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithRules sets the settlement rules (locale and currency of descriptions)
func WithRules(rules settlement.Rules) EngineOption {
	return func(e *Engine) { e.rules = rules }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithRecurrence sets the generator run after a recurring task completes
func WithRecurrence(g *RecurrenceGenerator) EngineOption {
	return func(e *Engine) { e.recurrence = g }
}

// NewEngine creates a reconciliation engine
func NewEngine(txScope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		txScope:   txScope,
		publisher: publisher,
		rules:     settlement.DefaultRules(),
		metrics:   noopMetrics{},
		now:       DefaultClock,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultClock returns the current UTC time at the precision the database keeps
func DefaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ApplyStatusChange dispatches a generic change request to the typed operation
func (e *Engine) ApplyStatusChange(ctx context.Context, change StatusChange) (*Result, error) {
	switch change.Kind {
	case RecordKindPayrollPayment:
		if change.Payroll == nil {
			return nil, shared.NewValidationError("payroll change payload is required")
		}
		return e.ApplyPayrollPaymentChange(ctx, change.RecordID, *change.Payroll, change.ActorID)
	case RecordKindVacationPeriod:
		if change.Vacation == nil {
			return nil, shared.NewValidationError("vacation change payload is required")
		}
		return e.ApplyVacationChange(ctx, change.RecordID, *change.Vacation, change.ActorID)
	case RecordKindBonusInstallment:
		if change.Bonus == nil {
			return nil, shared.NewValidationError("year-end bonus change payload is required")
		}
		return e.ApplyBonusInstallmentChange(ctx, change.RecordID, *change.Bonus, change.ActorID)
	case RecordKindMaintenanceTask:
		if change.Maintenance == nil {
			return nil, shared.NewValidationError("maintenance change payload is required")
		}
		return e.ApplyMaintenanceChange(ctx, change.RecordID, *change.Maintenance, change.ActorID)
	default:
		return nil, shared.NewValidationError("unknown record kind %q", change.Kind)
	}
}

// run executes fn in a transaction and handles the post-commit bookkeeping:
// metrics, failure logging and audit publication.
func (e *Engine) run(ctx context.Context, kind RecordKind, id uuid.UUID, actor *uuid.UUID, fn func(repos TransactionalRepositories, tx *txState) error) (*txState, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reconciliation.apply",
		trace.WithAttributes(
			attribute.String("record_kind", string(kind)),
			attribute.String("record_id", id.String()),
		))
	defer span.End()

	state := &txState{result: &Result{Kind: kind, RecordID: id, Outcome: OutcomeNoop, LedgerChanges: []LedgerChange{}}, actor: actor}
	err := e.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		state.reset()
		return fn(repos, state)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
		e.metrics.RecordFailure(ctx, kind, errorCode(err))
		if errors.Is(err, shared.ErrLedgerInvariant) {
			e.logger.Error("ledger invariant violated",
				zap.String("kind", string(kind)),
				zap.String("record_id", id.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("outcome", string(state.result.Outcome)),
		attribute.Int("ledger_changes", len(state.result.LedgerChanges)),
	)
	e.metrics.RecordOutcome(ctx, kind, state.result.Outcome)
	for _, lc := range state.result.LedgerChanges {
		e.metrics.RecordLedgerAction(ctx, kind, lc.Action)
	}
	e.publishAudit(ctx, state.events)
	return state, nil
}

// publishAudit hands audit events to the publisher. A failure here never
// undoes the committed change.
func (e *Engine) publishAudit(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, events...); err != nil {
		e.logger.Warn("failed to publish audit events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// txState collects what a transaction produced; it is reset on every attempt
type txState struct {
	result *Result
	events []shared.DomainEvent
	actor  *uuid.UUID
}

func (s *txState) reset() {
	s.result.Outcome = OutcomeNoop
	s.result.LedgerChanges = []LedgerChange{}
	s.result.Record = nil
	s.events = nil
}

// audit queues a RecordChangedEvent for publication after commit
func (s *txState) audit(action audit.Action, entityKind string, id uuid.UUID, before, after any) error {
	event, err := audit.NewRecordChangedEvent(action, entityKind, id, before, after, s.actor)
	if err != nil {
		return err
	}
	s.events = append(s.events, event)
	return nil
}

// writeLedger performs a settlement decision against the ledger repository
func (e *Engine) writeLedger(ctx context.Context, ledger finance.LedgerEntryRepository, d settlement.Decision, tx *txState, paymentID *uuid.UUID) error {
	now := e.now()
	switch d.Action {
	case settlement.ActionCreate:
		entry, err := finance.NewLedgerEntry(d.Draft)
		if err != nil {
			return err
		}
		entry.CreatedAt, entry.UpdatedAt = now, now
		if err := ledger.Create(ctx, entry); err != nil {
			return err
		}
		tx.result.LedgerChanges = append(tx.result.LedgerChanges, LedgerChange{Action: d.Action, EntryID: entry.ID, Amount: entry.Amount, PaymentID: paymentID})
		return tx.audit(audit.ActionCreate, finance.AggregateTypeLedgerEntry, entry.ID, nil, entry)
	case settlement.ActionUpdate:
		before := *d.Existing
		if err := d.Existing.Apply(d.Draft, now); err != nil {
			return err
		}
		if err := ledger.Update(ctx, d.Existing); err != nil {
			return err
		}
		tx.result.LedgerChanges = append(tx.result.LedgerChanges, LedgerChange{Action: d.Action, EntryID: d.Existing.ID, Amount: d.Existing.Amount, PaymentID: paymentID})
		return tx.audit(audit.ActionUpdate, finance.AggregateTypeLedgerEntry, d.Existing.ID, before, d.Existing)
	case settlement.ActionDelete:
		if err := ledger.Delete(ctx, d.Existing.ID); err != nil {
			return err
		}
		tx.result.LedgerChanges = append(tx.result.LedgerChanges, LedgerChange{Action: d.Action, EntryID: d.Existing.ID, Amount: d.Existing.Amount, PaymentID: paymentID})
		return tx.audit(audit.ActionDelete, finance.AggregateTypeLedgerEntry, d.Existing.ID, d.Existing, nil)
	}
	return nil
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
