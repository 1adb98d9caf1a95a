package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/opsledger/backend/internal/application/audit"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processorHarness struct {
	publisher *OutboxPublisher
	repo      *GormOutboxRepository
	bus       *InMemoryEventBus
	processor *OutboxProcessor
}

func newProcessorHarness(t *testing.T) *processorHarness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	repo := NewGormOutboxRepository(db)
	bus := NewInMemoryEventBus(zap.NewNop())

	cfg := DefaultOutboxProcessorConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.CleanupEnabled = false

	return &processorHarness{
		publisher: NewOutboxPublisher(db, serializer),
		repo:      repo,
		bus:       bus,
		processor: NewOutboxProcessor(repo, bus, serializer, cfg, zap.NewNop()),
	}
}

func (h *processorHarness) entry(t *testing.T, id uuid.UUID) *shared.OutboxEntry {
	t.Helper()
	got, err := h.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return got
}

func TestOutboxProcessor_DeliversPendingEntries(t *testing.T) {
	h := newProcessorHarness(t)
	ctx := context.Background()
	handler := testutil.NewMockEventHandler(audit.EventTypeRecordChanged)
	h.bus.Subscribe(handler)

	require.NoError(t, h.publisher.Publish(ctx, newRecordChanged(t), newRecordChanged(t)))
	h.processor.ProcessOnce(ctx)

	assert.Equal(t, 2, handler.HandledCount())
	counts, err := h.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])
}

func TestOutboxProcessor_FailedDeliveryIsRetried(t *testing.T) {
	h := newProcessorHarness(t)
	ctx := context.Background()
	handler := testutil.NewMockEventHandler(audit.EventTypeRecordChanged)
	handler.SetError(errors.New("audit store down"))
	h.bus.Subscribe(handler)

	require.NoError(t, h.publisher.Publish(ctx, newRecordChanged(t)))
	h.processor.ProcessOnce(ctx)

	pending, err := h.repo.FindRetryable(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	failed := pending[0]
	assert.Equal(t, shared.OutboxStatusFailed, failed.Status)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Contains(t, failed.LastError, "audit store down")

	past := time.Now().Add(-time.Second)
	failed.NextRetryAt = &past
	require.NoError(t, h.repo.Update(ctx, failed))
	handler.SetError(nil)

	h.processor.ProcessOnce(ctx)

	assert.Equal(t, 2, handler.HandledCount())
	assert.Equal(t, shared.OutboxStatusSent, h.entry(t, failed.ID).Status)
}

func TestOutboxProcessor_UnknownEventType(t *testing.T) {
	h := newProcessorHarness(t)
	ctx := context.Background()
	entry := shared.NewOutboxEntry(newTestEvent("Unregistered"), []byte(`{}`))
	require.NoError(t, h.repo.Save(ctx, entry))

	h.processor.ProcessOnce(ctx)

	got := h.entry(t, entry.ID)
	assert.Equal(t, shared.OutboxStatusFailed, got.Status)
	assert.Contains(t, got.LastError, "unknown event type")
}

func TestOutboxProcessor_RecordsAuditHistoryOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	repo := NewGormOutboxRepository(db)
	auditRepo := persistence.NewGormAuditLogRepository(db)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewIdempotentHandler(
		appaudit.NewRecordChangedHandler(auditRepo, zap.NewNop()),
		newMemoryStore(t),
		zap.NewNop(),
	))
	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	event := newRecordChanged(t)
	require.NoError(t, NewOutboxPublisher(db, serializer).Publish(ctx, event))
	processor.ProcessOnce(ctx)

	// A redelivery of the same event, as after a crash between handling and
	// marking the entry sent.
	require.NoError(t, bus.Dispatch(ctx, event))

	history, err := auditRepo.FindByEntity(ctx, "PayrollPayment", event.EntityID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, event.EventID(), history[0].EventID)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	h := newProcessorHarness(t)
	handler := testutil.NewMockEventHandler(audit.EventTypeRecordChanged)
	h.bus.Subscribe(handler)

	require.NoError(t, h.processor.Start(context.Background()))
	require.NoError(t, h.publisher.Publish(context.Background(), newRecordChanged(t)))

	testutil.RequireEventually(t, func() bool { return handler.HandledCount() == 1 },
		2*time.Second, 20*time.Millisecond, "entry delivered by the polling loop")

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.processor.Stop(stopCtx))
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	h := newProcessorHarness(t)
	ctx := context.Background()
	h.bus.Subscribe(testutil.NewMockEventHandler())

	require.NoError(t, h.publisher.Publish(ctx, newRecordChanged(t)))
	h.processor.ProcessOnce(ctx)

	h.processor.config.CleanupRetention = -time.Minute
	h.processor.cleanup(ctx)

	counts, err := h.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[shared.OutboxStatusSent])
}
