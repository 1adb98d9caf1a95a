package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type panickingHandler struct{}

func (panickingHandler) EventTypes() []string { return []string{"TestEvent"} }

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error {
	panic("boom")
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := testutil.NewMockEventHandler("TestEvent")
	other := testutil.NewMockEventHandler("OtherEvent")
	wildcard := testutil.NewMockEventHandler()
	bus.Subscribe(handler)
	bus.Subscribe(other)
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent"), newTestEvent("TestEvent")))

	assert.Equal(t, 2, handler.HandledCount())
	assert.Equal(t, 0, other.HandledCount())
	assert.Equal(t, 2, wildcard.HandledCount())
}

func TestInMemoryEventBus_Publish_HandlerErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))
	failing := testutil.NewMockEventHandler("TestEvent")
	failing.SetError(errors.New("handler error"))
	healthy := testutil.NewMockEventHandler("TestEvent")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))

	assert.Equal(t, 1, healthy.HandledCount())
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Dispatch_ReturnsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := testutil.NewMockEventHandler("TestEvent")
	failing.SetError(errors.New("handler error"))
	healthy := testutil.NewMockEventHandler("TestEvent")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Dispatch(context.Background(), newTestEvent("TestEvent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler error")
	assert.Equal(t, 1, healthy.HandledCount(), "later handlers still run")
}

func TestInMemoryEventBus_Dispatch_RecoversPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(panickingHandler{})

	err := bus.Dispatch(context.Background(), newTestEvent("TestEvent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := testutil.NewMockEventHandler("TestEvent")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))

	assert.Equal(t, 1, handler.HandledCount())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
}
