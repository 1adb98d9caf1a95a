package reconciliation

import (
	"context"

	"github.com/opsledger/backend/internal/domain/settlement"
)

// Metrics records reconciliation activity. The telemetry package provides
// the OpenTelemetry implementation.
type Metrics interface {
	RecordOutcome(ctx context.Context, kind RecordKind, outcome Outcome)
	RecordLedgerAction(ctx context.Context, kind RecordKind, action settlement.Action)
	RecordFailure(ctx context.Context, kind RecordKind, code string)
	RecordRecurrence(ctx context.Context, generated bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordOutcome(context.Context, RecordKind, Outcome)                {}
func (noopMetrics) RecordLedgerAction(context.Context, RecordKind, settlement.Action) {}
func (noopMetrics) RecordFailure(context.Context, RecordKind, string)                 {}
func (noopMetrics) RecordRecurrence(context.Context, bool)                            {}
