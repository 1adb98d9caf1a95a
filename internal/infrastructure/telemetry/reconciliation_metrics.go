package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/settlement"
	"github.com/opsledger/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ReconciliationMetrics records engine activity and the outbox backlog.
type ReconciliationMetrics struct {
	logger *zap.Logger

	changesTotal       *Counter
	ledgerActionsTotal *Counter
	failuresTotal      *Counter
	recurrenceTotal    *Counter
	outboxEntries      *Gauge

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// OutboxStatusSource reports outbox entry counts per status
type OutboxStatusSource interface {
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// NewReconciliationMetrics creates the reconciliation instruments on meter.
func NewReconciliationMetrics(meter metric.Meter, logger *zap.Logger) (*ReconciliationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &ReconciliationMetrics{logger: logger, stopCh: make(chan struct{})}
	var err error
	if m.changesTotal, err = NewCounter(meter, "reconciliation_changes_total",
		"Reconciliation operations by record kind and outcome", "{change}"); err != nil {
		return nil, err
	}
	if m.ledgerActionsTotal, err = NewCounter(meter, "reconciliation_ledger_actions_total",
		"Ledger entries created, updated or deleted by reconciliation", "{entry}"); err != nil {
		return nil, err
	}
	if m.failuresTotal, err = NewCounter(meter, "reconciliation_failures_total",
		"Rejected or failed reconciliation operations by error code", "{change}"); err != nil {
		return nil, err
	}
	if m.recurrenceTotal, err = NewCounter(meter, "recurrence_runs_total",
		"Recurrence generator runs by whether a task was created", "{run}"); err != nil {
		return nil, err
	}
	if m.outboxEntries, err = NewGauge(meter, "outbox_entries",
		"Audit outbox entries by delivery status", "{entry}"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ReconciliationMetrics) RecordOutcome(ctx context.Context, kind reconciliation.RecordKind, outcome reconciliation.Outcome) {
	m.changesTotal.Inc(ctx, AttrRecordKind.String(string(kind)), AttrOutcome.String(string(outcome)))
}

func (m *ReconciliationMetrics) RecordLedgerAction(ctx context.Context, kind reconciliation.RecordKind, action settlement.Action) {
	if action == settlement.ActionNoop {
		return
	}
	m.ledgerActionsTotal.Inc(ctx, AttrRecordKind.String(string(kind)), AttrLedgerAction.String(string(action)))
}

func (m *ReconciliationMetrics) RecordFailure(ctx context.Context, kind reconciliation.RecordKind, code string) {
	m.failuresTotal.Inc(ctx, AttrRecordKind.String(string(kind)), AttrErrorCode.String(code))
}

func (m *ReconciliationMetrics) RecordRecurrence(ctx context.Context, generated bool) {
	m.recurrenceTotal.Inc(ctx, attribute.Bool("generated", generated))
}

// StartOutboxCollection samples the outbox backlog every interval until
// Stop is called or ctx ends. Only the first call starts a collector.
func (m *ReconciliationMetrics) StartOutboxCollection(ctx context.Context, source OutboxStatusSource, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go m.runOutboxCollection(ctx, source, interval)
	})
}

func (m *ReconciliationMetrics) runOutboxCollection(ctx context.Context, source OutboxStatusSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collectOutbox(ctx, source)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectOutbox(ctx, source)
		}
	}
}

func (m *ReconciliationMetrics) collectOutbox(ctx context.Context, source OutboxStatusSource) {
	counts, err := source.CountByStatus(ctx)
	if err != nil {
		m.logger.Warn("Failed to count outbox entries", zap.Error(err))
		return
	}
	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		m.outboxEntries.Record(ctx, counts[status], AttrOutboxStatus.String(string(status)))
	}
}

// Stop stops the outbox collector.
func (m *ReconciliationMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewReconciliationMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

var _ reconciliation.Metrics = (*ReconciliationMetrics)(nil)
