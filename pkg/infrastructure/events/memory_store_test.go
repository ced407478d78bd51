package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeplan/bakeplan/pkg/infrastructure/events"
)

func TestAppendEventVersionsPerStream(t *testing.T) {
	store := events.NewInMemoryEventStore()

	require.NoError(t, store.AppendEvent("plan-1", events.NewEvent(events.SolveStartedEvent, "plan-1", events.SolveStarted{Products: 2})))
	require.NoError(t, store.AppendEvent("plan-1", events.NewEvent(events.SolveCompletedEvent, "plan-1", nil)))
	require.NoError(t, store.AppendEvent("plan-2", events.NewEvent(events.SolveStartedEvent, "plan-2", nil)))

	stream, err := store.ReadEvents("plan-1")
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, events.SolveStartedEvent, stream[0].Type())
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())

	other, err := store.ReadEvents("plan-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 1, other[0].Version())
}

func TestReadEventsUnknownStreamIsEmpty(t *testing.T) {
	store := events.NewInMemoryEventStore()
	stream, err := store.ReadEvents("missing")
	require.NoError(t, err)
	assert.Empty(t, stream)
}

func TestReadAllEventsPreservesOrder(t *testing.T) {
	store := events.NewInMemoryEventStore()
	require.NoError(t, store.AppendEvent("a", events.NewEvent(events.SolveStartedEvent, "a", nil)))
	require.NoError(t, store.AppendEvent("b", events.NewEvent(events.SolveStartedEvent, "b", nil)))
	require.NoError(t, store.AppendEvent("a", events.NewEvent(events.SolveCompletedEvent, "a", nil)))

	all, err := store.ReadAllEvents()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].StreamID())
	assert.Equal(t, "b", all[1].StreamID())
	assert.Equal(t, events.SolveCompletedEvent, all[2].Type())
}
