package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huelink/internal/bridge"
)

func marshalFrame(t *testing.T, resp Response) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestListFramesAlwaysCarryTheirArray(t *testing.T) {
	tests := []struct {
		resp Response
		key  string
	}{
		{LightsList(nil), "lights"},
		{GroupsList(nil), "groups"},
		{ScenesList(nil), "scenes"},
		{PatternsList(nil), "patterns"},
		{SchedulesList(nil), "schedules"},
	}
	for _, tt := range tests {
		frame := marshalFrame(t, tt.resp)
		raw, ok := frame[tt.key]
		require.True(t, ok, "%s frame missing %q", tt.resp.Type, tt.key)
		assert.JSONEq(t, "[]", string(raw), tt.key)
	}
}

func TestListFramesCarryElements(t *testing.T) {
	frame := marshalFrame(t, LightsList([]bridge.Light{{ID: "1", Name: "Desk"}}))
	var lights []bridge.Light
	require.NoError(t, json.Unmarshal(frame["lights"], &lights))
	require.Len(t, lights, 1)
	assert.Equal(t, "Desk", lights[0].Name)
}

func TestNonListFramesOmitArrays(t *testing.T) {
	for _, resp := range []Response{Hello(), OK(), Errorf("boom")} {
		frame := marshalFrame(t, resp)
		for _, key := range []string{"lights", "groups", "scenes", "patterns", "schedules"} {
			_, ok := frame[key]
			assert.False(t, ok, "%s frame should not carry %q", resp.Type, key)
		}
	}
}

func TestErrorFrameNeverEmpty(t *testing.T) {
	resp := Errorf("")
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "internal error", resp.Error)
}
