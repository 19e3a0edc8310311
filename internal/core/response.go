package core

import (
	"huelink/internal/bridge"
)

// Protocol version advertised in the hello frame.
const ProtocolVersion = 1

// Capabilities advertised to every connecting client.
var Capabilities = []string{
	"lights", "colors", "flash", "brightness", "effects",
	"temperature", "scenes", "groups", "disco", "patterns", "schedules",
}

// Response is the discriminated union written back to clients, one JSON
// object per frame. Only the fields belonging to Type are populated;
// everything else stays omitted on the wire.
type Response struct {
	Type string `json:"type"`

	// hello
	Version      int      `json:"version,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`

	// List replies. omitzero instead of omitempty: a list frame always
	// carries its plural array, as [] when there is nothing to list,
	// while non-list frames leave the nil slices off the wire.
	Lights []bridge.Light `json:"lights,omitzero"`
	Groups []bridge.Group `json:"groups,omitzero"`
	Scenes []bridge.Scene `json:"scenes,omitzero"`

	// success / error
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	// pattern and schedule replies, plus server-initiated status frames
	Patterns  []string        `json:"patterns,omitzero"`
	Schedules []ScheduleEntry `json:"schedules,omitzero"`
	Name      string          `json:"name,omitempty"`
	Code      string          `json:"code,omitempty"`
	LightID   string          `json:"lightId,omitempty"`
	Group     string          `json:"group,omitempty"`
	Running   string          `json:"running,omitempty"`
}

// ScheduleEntry mirrors a stored scheduler entry in list replies.
type ScheduleEntry struct {
	ID      int    `json:"id"`
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

func Hello() Response {
	return Response{Type: "hello", Version: ProtocolVersion, Capabilities: Capabilities}
}

func OK() Response {
	return Response{Type: "success", Success: true}
}

// Errorf builds an error response. The message is always non-empty so a
// client can rely on the error field being present.
func Errorf(msg string) Response {
	if msg == "" {
		msg = "internal error"
	}
	return Response{Type: "error", Error: msg}
}

func LightsList(lights []bridge.Light) Response {
	if lights == nil {
		lights = []bridge.Light{}
	}
	return Response{Type: "lights_list", Lights: lights}
}

func GroupsList(groups []bridge.Group) Response {
	if groups == nil {
		groups = []bridge.Group{}
	}
	return Response{Type: "groups_list", Groups: groups}
}

func ScenesList(scenes []bridge.Scene) Response {
	if scenes == nil {
		scenes = []bridge.Scene{}
	}
	return Response{Type: "scenes_list", Scenes: scenes}
}

func PatternsList(names []string) Response {
	if names == nil {
		names = []string{}
	}
	return Response{Type: "patterns_list", Patterns: names}
}

func SchedulesList(entries []ScheduleEntry) Response {
	if entries == nil {
		entries = []ScheduleEntry{}
	}
	return Response{Type: "schedules_list", Schedules: entries}
}
