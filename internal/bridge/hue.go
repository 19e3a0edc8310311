// Package bridge wraps the Hue bridge SDK behind a small controller
// interface with normalized light, group and scene records.
package bridge

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/amimof/huego"
	"golang.org/x/time/rate"
)

// HueController talks to a Philips Hue bridge through the v1 REST API.
// All calls pass through a rate limiter: the bridge firmware starts
// dropping requests somewhere above 10 commands per second.
type HueController struct {
	bridge  *huego.Bridge
	limiter *rate.Limiter
}

// Connect builds a bridge session and verifies it with a config read.
// A failure here means the host is unreachable or the credential is
// invalid, both of which are fatal at startup.
func Connect(ctx context.Context, host, user string, rps float64, burst int) (*HueController, error) {
	if host == "" {
		return nil, fmt.Errorf("bridge host is not set")
	}
	if user == "" {
		return nil, fmt.Errorf("bridge credential is not set")
	}
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 10
	}

	b := huego.New(host, user)
	cfg, err := b.GetConfigContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("bridge handshake with %s failed: %w", host, err)
	}
	log.Printf("[Bridge] Connected to %q at %s", cfg.Name, host)

	return &HueController{
		bridge:  b,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

func (c *HueController) Lights(ctx context.Context) ([]Light, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := c.bridge.GetLightsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lights: %w", err)
	}
	lights := make([]Light, 0, len(raw))
	for _, l := range raw {
		lights = append(lights, Light{
			ID:    strconv.Itoa(l.ID),
			Name:  l.Name,
			Type:  l.Type,
			Model: l.ModelID,
			State: fromHueState(l.State),
		})
	}
	return lights, nil
}

func (c *HueController) Groups(ctx context.Context) ([]Group, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := c.bridge.GetGroupsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get groups: %w", err)
	}
	groups := make([]Group, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, Group{
			ID:     strconv.Itoa(g.ID),
			Name:   g.Name,
			Lights: g.Lights,
			Class:  g.Class,
			State:  fromHueState(g.State),
		})
	}
	return groups, nil
}

func (c *HueController) Scenes(ctx context.Context) ([]Scene, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := c.bridge.GetScenesContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get scenes: %w", err)
	}
	scenes := make([]Scene, 0, len(raw))
	for _, s := range raw {
		scenes = append(scenes, Scene{
			ID:     s.ID,
			Name:   s.Name,
			Lights: s.Lights,
			Group:  s.Group,
		})
	}
	return scenes, nil
}

func (c *HueController) SetLightState(ctx context.Context, id string, upd StateUpdate) error {
	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid light id %q", id)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.bridge.SetLightStateContext(ctx, n, toHueState(upd)); err != nil {
		return fmt.Errorf("set light %s state: %w", id, err)
	}
	return nil
}

func (c *HueController) SetGroupState(ctx context.Context, id string, upd StateUpdate) error {
	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid group id %q", id)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.bridge.SetGroupStateContext(ctx, n, toHueState(upd)); err != nil {
		return fmt.Errorf("set group %s state: %w", id, err)
	}
	return nil
}

func (c *HueController) ActivateScene(ctx context.Context, id string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	// Group 0 is the bridge's implicit "all lights" group; the scene
	// itself carries its member lights.
	if _, err := c.bridge.RecallSceneContext(ctx, id, 0); err != nil {
		return fmt.Errorf("activate scene %s: %w", id, err)
	}
	return nil
}

// toHueState encodes a partial update into the SDK's state struct.
// The v1 API cannot omit "on", so an update that does not mention power
// is sent with on=true: every mutating command in the protocol either
// targets a lit light or turns it on anyway.
func toHueState(upd StateUpdate) huego.State {
	st := huego.State{On: true}
	if upd.On != nil {
		st.On = *upd.On
	}
	if upd.Bri != nil {
		st.Bri = *upd.Bri
	}
	if upd.RGB != nil {
		x, y := rgbToXY(upd.RGB[0], upd.RGB[1], upd.RGB[2])
		st.Xy = []float32{x, y}
	}
	if upd.Ct != nil {
		st.Ct = *upd.Ct
	}
	if upd.Effect != "" {
		st.Effect = upd.Effect
	}
	if upd.TransitionTime != nil {
		st.TransitionTime = *upd.TransitionTime
	}
	return st
}

func fromHueState(st *huego.State) *LightState {
	if st == nil {
		return nil
	}
	return &LightState{
		On:        st.On,
		Bri:       st.Bri,
		Ct:        st.Ct,
		Kelvin:    MirekToKelvin(st.Ct),
		Effect:    st.Effect,
		ColorMode: st.ColorMode,
		Reachable: st.Reachable,
	}
}
