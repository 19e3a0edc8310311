package agent

import (
	"context"
	"fmt"
	"time"

	"huelink/internal/bridge"
	"huelink/internal/core"
	"huelink/internal/effects"
	"huelink/internal/pattern"
	"huelink/internal/scheduler"
)

// CommandHandler maps a decoded command onto bridge operations or effect
// jobs and always produces exactly one response. Validation failures and
// bridge errors come back as error responses; nothing escapes past this
// boundary.
type CommandHandler struct {
	bridge    bridge.Controller
	state     *core.State
	effects   *effects.Engine
	patterns  *pattern.Engine
	scheduler *scheduler.Scheduler
	bus       *core.EventBus
}

func NewCommandHandler(bc bridge.Controller, st *core.State, fx *effects.Engine, pe *pattern.Engine, sc *scheduler.Scheduler, bus *core.EventBus) *CommandHandler {
	return &CommandHandler{
		bridge:    bc,
		state:     st,
		effects:   fx,
		patterns:  pe,
		scheduler: sc,
		bus:       bus,
	}
}

// Handle dispatches one command. Long-running commands (flash) block the
// caller until they finish; disco registers a detached job and returns
// at once.
func (h *CommandHandler) Handle(ctx context.Context, cmd core.Command) core.Response {
	switch cmd.Type {

	case core.CmdGetLights:
		return core.LightsList(h.state.Lights())

	case core.CmdRefreshLights:
		lights, err := h.bridge.Lights(ctx)
		if err != nil {
			return core.Errorf(err.Error())
		}
		h.state.SetLights(lights)
		return core.LightsList(lights)

	case core.CmdGetGroups:
		groups, err := h.bridge.Groups(ctx)
		if err != nil {
			return core.Errorf(err.Error())
		}
		return core.GroupsList(groups)

	case core.CmdGetScenes:
		scenes, err := h.bridge.Scenes(ctx)
		if err != nil {
			return core.Errorf(err.Error())
		}
		return core.ScenesList(scenes)

	case core.CmdSetColor:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		color, err := parseColor(cmd.Color)
		if err != nil {
			return core.Errorf(err.Error())
		}
		upd := bridge.StateUpdate{
			On:  bridge.Ptr(true),
			Bri: bridge.Ptr(uint8(254)),
			RGB: color,
		}
		applyTransition(&upd, cmd.TransitionTime)
		return h.setLight(ctx, cmd.LightID, upd)

	case core.CmdSetBrightness:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		if cmd.Brightness == nil {
			return missingField("brightness")
		}
		if *cmd.Brightness < 0 || *cmd.Brightness > 100 {
			return core.Errorf("brightness must be between 0 and 100")
		}
		upd := bridge.StateUpdate{
			On:  bridge.Ptr(true),
			Bri: bridge.Ptr(bridge.ScaleBrightness(*cmd.Brightness)),
		}
		applyTransition(&upd, cmd.TransitionTime)
		return h.setLight(ctx, cmd.LightID, upd)

	case core.CmdSetEffect:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		if cmd.EffectType == "" {
			return missingField("effectType")
		}
		return h.setLight(ctx, cmd.LightID, bridge.StateUpdate{Effect: cmd.EffectType})

	case core.CmdSetTemperature:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		if cmd.Temperature == nil {
			return missingField("temperature")
		}
		if *cmd.Temperature < 2000 || *cmd.Temperature > 6500 {
			return core.Errorf("temperature must be between 2000K and 6500K")
		}
		upd := bridge.StateUpdate{
			On: bridge.Ptr(true),
			Ct: bridge.Ptr(bridge.KelvinToMirek(*cmd.Temperature)),
		}
		applyTransition(&upd, cmd.TransitionTime)
		return h.setLight(ctx, cmd.LightID, upd)

	case core.CmdActivateScene:
		if cmd.Scene == "" {
			return missingField("scene")
		}
		if err := h.bridge.ActivateScene(ctx, cmd.Scene); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdSetGroupState:
		if cmd.Group == "" {
			return missingField("group")
		}
		upd := bridge.StateUpdate{}
		if cmd.Color != nil {
			color, err := parseColor(cmd.Color)
			if err != nil {
				return core.Errorf(err.Error())
			}
			upd.RGB = color
		}
		if cmd.Brightness != nil {
			if *cmd.Brightness < 0 || *cmd.Brightness > 100 {
				return core.Errorf("brightness must be between 0 and 100")
			}
			upd.Bri = bridge.Ptr(bridge.ScaleBrightness(*cmd.Brightness))
		}
		if cmd.Temperature != nil {
			if *cmd.Temperature < 2000 || *cmd.Temperature > 6500 {
				return core.Errorf("temperature must be between 2000K and 6500K")
			}
			upd.Ct = bridge.Ptr(bridge.KelvinToMirek(*cmd.Temperature))
		}
		upd.Effect = cmd.EffectType
		applyTransition(&upd, cmd.TransitionTime)
		if err := h.bridge.SetGroupState(ctx, cmd.Group, upd); err != nil {
			return core.Errorf(err.Error())
		}
		h.publishStateChange("", cmd.Group)
		return core.OK()

	case core.CmdTurnOn:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		return h.setLight(ctx, cmd.LightID, bridge.StateUpdate{On: bridge.Ptr(true)})

	case core.CmdTurnOff:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		return h.setLight(ctx, cmd.LightID, bridge.StateUpdate{On: bridge.Ptr(false)})

	case core.CmdFlash:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		color, err := parseColor(cmd.Color)
		if err != nil {
			return core.Errorf(err.Error())
		}
		if err := h.effects.Flash(ctx, cmd.LightID, *color, cmd.Times); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdDisco:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		h.effects.StartDisco(cmd.LightID,
			time.Duration(cmd.Duration)*time.Second,
			time.Duration(cmd.Speed)*time.Millisecond)
		return core.OK()

	case core.CmdStopEffect:
		if cmd.LightID == "" {
			return missingField("lightId")
		}
		if !h.effects.Stop(cmd.LightID) {
			return core.Errorf(fmt.Sprintf("no running effect for light %s", cmd.LightID))
		}
		return core.OK()

	case core.CmdGetPatterns:
		names, err := h.patterns.List()
		if err != nil {
			return core.Errorf(err.Error())
		}
		return core.PatternsList(names)

	case core.CmdRunPattern:
		if cmd.Name == "" {
			return missingField("name")
		}
		if err := h.patterns.Run(cmd.Name); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdStopPattern:
		h.patterns.Stop()
		return core.OK()

	case core.CmdGetPatternCode:
		if cmd.Name == "" {
			return missingField("name")
		}
		code, err := h.patterns.Code(cmd.Name)
		if err != nil {
			return core.Errorf(err.Error())
		}
		return core.Response{Type: "pattern_code", Name: cmd.Name, Code: code}

	case core.CmdSavePattern:
		if cmd.Name == "" {
			return missingField("name")
		}
		if cmd.Code == "" {
			return missingField("code")
		}
		if err := h.patterns.Save(cmd.Name, cmd.Code); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdDeletePattern:
		if cmd.Name == "" {
			return missingField("name")
		}
		if err := h.patterns.Delete(cmd.Name); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdGetSchedules:
		return core.SchedulesList(h.scheduler.Entries())

	case core.CmdAddSchedule:
		if cmd.Spec == "" {
			return missingField("spec")
		}
		if cmd.Command == "" {
			return missingField("command")
		}
		if _, err := h.scheduler.Add(cmd.Spec, cmd.Command); err != nil {
			return core.Errorf(err.Error())
		}
		return core.OK()

	case core.CmdRemoveSchedule:
		if cmd.ScheduleID == 0 {
			return missingField("id")
		}
		h.scheduler.Remove(cmd.ScheduleID)
		return core.OK()

	default:
		return core.Errorf("Unknown command")
	}
}

func (h *CommandHandler) setLight(ctx context.Context, lightID string, upd bridge.StateUpdate) core.Response {
	if err := h.bridge.SetLightState(ctx, lightID, upd); err != nil {
		return core.Errorf(err.Error())
	}
	h.publishStateChange(lightID, "")
	return core.OK()
}

func (h *CommandHandler) publishStateChange(lightID, group string) {
	if h.bus == nil {
		return
	}
	payload := map[string]interface{}{}
	if lightID != "" {
		payload["lightId"] = lightID
	}
	if group != "" {
		payload["group"] = group
	}
	h.bus.Publish(core.Event{Type: core.LightStateChangedEvent, Payload: payload})
}

func missingField(name string) core.Response {
	return core.Errorf(fmt.Sprintf("missing required field '%s'", name))
}

// parseColor validates the 3-tuple of 8-bit channel values.
func parseColor(raw []int) (*[3]uint8, error) {
	if raw == nil {
		return nil, fmt.Errorf("missing required field 'color'")
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("color must be a 3-element array")
	}
	var c [3]uint8
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("color channel values must be between 0 and 255")
		}
		c[i] = uint8(v)
	}
	return &c, nil
}

func applyTransition(upd *bridge.StateUpdate, tt *int) {
	if tt != nil && *tt >= 0 {
		upd.TransitionTime = bridge.Ptr(uint16(*tt))
	}
}
