package audit

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordChangedEvent(t *testing.T) {
	id := uuid.New()
	actor := uuid.New()

	e, err := NewRecordChangedEvent(ActionUpdate, "PayrollPayment", id,
		map[string]string{"status": "PENDING"},
		map[string]string{"status": "PAID"},
		&actor)
	require.NoError(t, err)

	assert.Equal(t, EventTypeRecordChanged, e.EventType())
	assert.Equal(t, id, e.AggregateID())
	assert.Equal(t, "PayrollPayment", e.AggregateType())
	assert.JSONEq(t, `{"status":"PENDING"}`, string(e.Before))
	assert.JSONEq(t, `{"status":"PAID"}`, string(e.After))
	assert.Equal(t, actor, *e.ActorID)
}

func TestNewRecordChangedEvent_NilSnapshots(t *testing.T) {
	e, err := NewRecordChangedEvent(ActionDelete, "MaintenanceTask", uuid.New(), json.RawMessage(`{"a":1}`), nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(e.Before))
	assert.Nil(t, e.After)

	log := NewAuditLog(e)
	assert.Equal(t, e.EventID(), log.EventID)
	assert.Equal(t, ActionDelete, log.Action)
	assert.Nil(t, log.ActorID)
}
