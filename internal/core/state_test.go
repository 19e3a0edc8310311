package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huelink/internal/bridge"
)

func TestStateSnapshotIsolation(t *testing.T) {
	s := NewState()
	assert.Empty(t, s.Lights())

	s.SetLights([]bridge.Light{{ID: "1", Name: "Desk"}, {ID: "2", Name: "Sofa"}})

	got := s.Lights()
	require.Len(t, got, 2)

	// Mutating the returned slice must not leak into the snapshot.
	got[0].Name = "Changed"
	assert.Equal(t, "Desk", s.Lights()[0].Name)
}

func TestStateReplace(t *testing.T) {
	s := NewState()
	s.SetLights([]bridge.Light{{ID: "1"}})
	s.SetLights([]bridge.Light{{ID: "2"}, {ID: "3"}})

	got := s.Lights()
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
}
