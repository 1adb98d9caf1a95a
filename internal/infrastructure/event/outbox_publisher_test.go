package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/audit"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRecordChanged(t *testing.T) *audit.RecordChangedEvent {
	t.Helper()
	e, err := audit.NewRecordChangedEvent(audit.ActionUpdate, "PayrollPayment", uuid.New(),
		map[string]string{"status": "PENDING"}, map[string]string{"status": "PAID"}, nil)
	require.NoError(t, err)
	return e
}

func newTestPublisher(t *testing.T) (*OutboxPublisher, *GormOutboxRepository, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	return NewOutboxPublisher(db, serializer), NewGormOutboxRepository(db), db
}

func TestOutboxPublisher_Publish(t *testing.T) {
	publisher, repo, _ := newTestPublisher(t)
	ctx := context.Background()
	event := newRecordChanged(t)

	require.NoError(t, publisher.Publish(ctx, event))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.EventID(), pending[0].EventID)
	assert.Equal(t, audit.EventTypeRecordChanged, pending[0].EventType)
	assert.Equal(t, "PayrollPayment", pending[0].AggregateType)
	assert.Equal(t, shared.OutboxStatusPending, pending[0].Status)
}

func TestOutboxPublisher_Publish_SameEventTwice(t *testing.T) {
	publisher, repo, _ := newTestPublisher(t)
	ctx := context.Background()
	event := newRecordChanged(t)

	require.NoError(t, publisher.Publish(ctx, event))
	require.NoError(t, publisher.Publish(ctx, event))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
}

func TestOutboxPublisher_Publish_Empty(t *testing.T) {
	publisher, repo, _ := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, publisher.Publish(ctx))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxPublisher_PublishWithTx_Rollback(t *testing.T) {
	publisher, repo, db := newTestPublisher(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := publisher.PublishWithTx(ctx, tx, newRecordChanged(t), newRecordChanged(t)); err != nil {
			return err
		}
		return errors.New("business rule failed")
	})
	require.Error(t, err)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "events must not outlive a rolled back transaction")
}
