package core

import (
	"sync"

	"huelink/internal/bridge"
)

// State holds the light snapshot fetched at startup. The snapshot is a
// best-effort projection, not a source of truth: get_lights serves it
// unchanged until an explicit refresh_lights re-fetches it. Mutating
// commands deliberately do not touch it.
type State struct {
	mu     sync.RWMutex
	lights []bridge.Light
}

func NewState() *State {
	return &State{}
}

// SetLights replaces the snapshot.
func (s *State) SetLights(lights []bridge.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = lights
}

// Lights returns a copy of the snapshot.
func (s *State) Lights() []bridge.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bridge.Light, len(s.lights))
	copy(out, s.lights)
	return out
}
