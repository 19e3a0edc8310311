package bridge

import "context"

// Light is a read-only projection of a bridge light resource.
type Light struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  string      `json:"type,omitempty"`
	Model string      `json:"model,omitempty"`
	State *LightState `json:"state,omitempty"`
}

// Group is a read-only projection of a bridge group resource.
type Group struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Lights []string    `json:"lights"`
	Class  string      `json:"class,omitempty"`
	State  *LightState `json:"state,omitempty"`
}

// Scene is a read-only projection of a bridge scene resource.
type Scene struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Lights []string `json:"lights"`
	Group  string   `json:"group,omitempty"`
}

// LightState is a bridge-reported state snapshot. Kelvin is a client
// convenience projected from the mired value.
type LightState struct {
	On        bool   `json:"on"`
	Bri       uint8  `json:"bri"`
	Ct        uint16 `json:"ct,omitempty"`
	Kelvin    int    `json:"kelvin,omitempty"`
	Effect    string `json:"effect,omitempty"`
	ColorMode string `json:"colorMode,omitempty"`
	Reachable bool   `json:"reachable"`
}

// StateUpdate is a partial light or group state. Nil fields are not sent
// to the bridge.
type StateUpdate struct {
	On             *bool
	Bri            *uint8    // 0-254, bridge scale
	RGB            *[3]uint8 // converted to CIE xy at the bridge boundary
	Ct             *uint16   // mired
	Effect         string    // forwarded verbatim, e.g. "colorloop", "none"
	TransitionTime *uint16   // hundredths of a second
}

// Controller is the capability the rest of the agent programs against.
// Implementations hide the bridge SDK's encoding quirks behind the
// normalized record types above.
type Controller interface {
	Lights(ctx context.Context) ([]Light, error)
	Groups(ctx context.Context) ([]Group, error)
	Scenes(ctx context.Context) ([]Scene, error)
	SetLightState(ctx context.Context, id string, upd StateUpdate) error
	SetGroupState(ctx context.Context, id string, upd StateUpdate) error
	ActivateScene(ctx context.Context, id string) error
}

// Ptr returns a pointer to v, for building StateUpdate literals.
func Ptr[T any](v T) *T { return &v }
