package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huelink/internal/core"
)

func newTestScheduler(t *testing.T) (*Scheduler, core.CommandChannel, string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "schedules.json")
	ch := make(core.CommandChannel, 5)
	return NewScheduler(ch, file, core.NewEventBus()), ch, file
}

func TestAddAndList(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	id1, err := s.Add("0 23 * * *", `{"type":"turn_off","lightId":"1"}`)
	require.NoError(t, err)
	id2, err := s.Add("0 7 * * *", `{"type":"turn_on","lightId":"1"}`)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries := s.Entries()
	require.Len(t, entries, 2)
	// Ordered by id.
	assert.Less(t, entries[0].ID, entries[1].ID)
	assert.Equal(t, "0 23 * * *", entries[0].Spec)
}

func TestAddRejectsBrokenInput(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	_, err := s.Add("0 23 * * *", "turn everything off")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	_, err = s.Add("0 23 * * *", `{"lightId":"1"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type")

	_, err = s.Add("every day at noon", `{"type":"turn_off","lightId":"1"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron spec")

	assert.Empty(t, s.Entries())
}

func TestRemove(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	id, err := s.Add("0 23 * * *", `{"type":"turn_off","lightId":"1"}`)
	require.NoError(t, err)

	s.Remove(id)
	assert.Empty(t, s.Entries())

	// Removing an unknown id is a no-op.
	s.Remove(42)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	s, _, file := newTestScheduler(t)

	_, err := s.Add("0 23 * * *", `{"type":"turn_off","lightId":"1"}`)
	require.NoError(t, err)
	_, err = s.Add("30 6 * * 1-5", `{"type":"set_brightness","lightId":"2","brightness":80}`)
	require.NoError(t, err)

	// A fresh scheduler on the same file picks the entries back up.
	reloaded := NewScheduler(make(core.CommandChannel, 5), file, core.NewEventBus())
	entries := reloaded.Entries()
	require.Len(t, entries, 2)

	specs := []string{entries[0].Spec, entries[1].Spec}
	assert.Contains(t, specs, "0 23 * * *")
	assert.Contains(t, specs, "30 6 * * 1-5")
}

func TestLoadToleratesMissingAndBrokenFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing.json")
	s := NewScheduler(make(core.CommandChannel, 5), file, core.NewEventBus())
	assert.Empty(t, s.Entries())

	require.NoError(t, os.WriteFile(file, []byte("{broken"), 0644))
	s = NewScheduler(make(core.CommandChannel, 5), file, core.NewEventBus())
	assert.Empty(t, s.Entries())
}

func TestExecuteDispatchesToChannel(t *testing.T) {
	s, ch, _ := newTestScheduler(t)

	s.execute(`{"type":"turn_off","lightId":"7"}`)

	select {
	case cmd := <-ch:
		assert.Equal(t, core.CmdTurnOff, cmd.Type)
		assert.Equal(t, "7", cmd.LightID)
	case <-time.After(time.Second):
		t.Fatal("command never reached the channel")
	}

	// A broken stored command is skipped, not sent.
	s.execute("not json")
	select {
	case cmd := <-ch:
		t.Fatalf("unexpected command dispatched: %+v", cmd)
	default:
	}
}

func TestNotifyPublishesListChanges(t *testing.T) {
	bus := core.NewEventBus()
	sub := bus.Subscribe(core.ScheduleListChangedEvent)

	s := NewScheduler(make(core.CommandChannel, 5), filepath.Join(t.TempDir(), "schedules.json"), bus)
	_, err := s.Add("0 23 * * *", `{"type":"turn_off","lightId":"1"}`)
	require.NoError(t, err)

	select {
	case ev := <-sub:
		assert.Equal(t, core.ScheduleListChangedEvent, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no schedule list event published")
	}
}
