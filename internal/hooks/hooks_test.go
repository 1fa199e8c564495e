package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/d20stats/internal/logging"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManagerOnAndEmit(t *testing.T) {
	m := testManager()
	var got []Payload
	m.On(EventRecordsLoaded, "recorder", func(_ context.Context, p Payload) error {
		got = append(got, p)
		return nil
	})

	failed := m.Emit(context.Background(), Payload{Event: EventRecordsLoaded, RunID: "r1", Data: map[string]any{"records": 42}})
	assert.Zero(t, failed)
	assert.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RunID)
	assert.Equal(t, 42, got[0].Data["records"])

	m.Emit(context.Background(), Payload{Event: EventReportBuilt})
	assert.Len(t, got, 1)
}

func TestManagerEmitOrderAndErrors(t *testing.T) {
	m := testManager()
	var order []string
	m.On(EventReportEmitted, "first", func(context.Context, Payload) error {
		order = append(order, "first")
		return errors.New("disk full")
	})
	m.On(EventReportEmitted, "second", func(context.Context, Payload) error {
		order = append(order, "second")
		return nil
	})

	failed := m.Emit(context.Background(), Payload{Event: EventReportEmitted})
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManagerOff(t *testing.T) {
	m := testManager()
	noop := func(context.Context, Payload) error { return nil }
	m.On(EventRunFailed, "a", noop)
	m.On(EventRunFailed, "b", noop)
	m.On(EventRunFailed, "a", noop)

	m.Off(EventRunFailed, "a")
	assert.Equal(t, 1, m.Count(EventRunFailed))
	m.Off(EventRunFailed, "b")
	assert.Zero(t, m.Count(EventRunFailed))
	assert.Empty(t, m.Events())
}

func TestManagerOnAll(t *testing.T) {
	m := testManager()
	var mu sync.Mutex
	seen := map[Event]bool{}
	m.OnAll("progress", func(_ context.Context, p Payload) error {
		mu.Lock()
		defer mu.Unlock()
		seen[p.Event] = true
		return nil
	})

	for _, e := range AllEvents {
		m.Emit(context.Background(), Payload{Event: e})
	}
	assert.Len(t, seen, len(AllEvents))
	assert.Len(t, m.Events(), len(AllEvents))
	assert.Equal(t, EventMessagesClassified, m.Events()[0])
}
