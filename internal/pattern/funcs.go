package pattern

import (
	"context"
	"log"
	"time"

	"huelink/internal/bridge"

	lua "github.com/yuin/gopher-lua"
)

// runner binds one script execution's context to the Lua globals.
type runner struct {
	engine *Engine
	ctx    context.Context
}

// register exposes the light-control API to the Lua state. Every script
// addresses lights by their bridge id, same as the wire protocol.
func (r *runner) register(L *lua.LState) {
	L.SetGlobal("set_color", L.NewFunction(r.luaSetColor))
	L.SetGlobal("set_brightness", L.NewFunction(r.luaSetBrightness))
	L.SetGlobal("turn_on", L.NewFunction(r.luaTurnOn))
	L.SetGlobal("turn_off", L.NewFunction(r.luaTurnOff))
	L.SetGlobal("sleep", L.NewFunction(r.luaSleep))
	L.SetGlobal("should_stop", L.NewFunction(r.luaShouldStop))
	L.SetGlobal("print", L.NewFunction(luaPrint))
}

func luaPrint(L *lua.LState) int {
	log.Printf("[LUA] %s", L.ToString(1))
	return 0
}

func (r *runner) luaSetColor(L *lua.LState) int {
	id := L.ToString(1)
	color := [3]uint8{clampChannel(L.ToInt(2)), clampChannel(L.ToInt(3)), clampChannel(L.ToInt(4))}
	r.set(id, bridge.StateUpdate{
		On:             bridge.Ptr(true),
		RGB:            &color,
		TransitionTime: bridge.Ptr(uint16(0)),
	})
	return 0
}

func (r *runner) luaSetBrightness(L *lua.LState) int {
	id := L.ToString(1)
	pct := L.ToInt(2)
	r.set(id, bridge.StateUpdate{
		On:  bridge.Ptr(true),
		Bri: bridge.Ptr(bridge.ScaleBrightness(pct)),
	})
	return 0
}

func (r *runner) luaTurnOn(L *lua.LState) int {
	r.set(L.ToString(1), bridge.StateUpdate{On: bridge.Ptr(true)})
	return 0
}

func (r *runner) luaTurnOff(L *lua.LState) int {
	r.set(L.ToString(1), bridge.StateUpdate{On: bridge.Ptr(false)})
	return 0
}

// luaSleep waits the given milliseconds but wakes immediately when the
// script is cancelled.
func (r *runner) luaSleep(L *lua.LState) int {
	ms := L.ToInt(1)
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
	case <-r.ctx.Done():
	}
	return 0
}

func (r *runner) luaShouldStop(L *lua.LState) int {
	select {
	case <-r.ctx.Done():
		L.Push(lua.LBool(true))
	default:
		L.Push(lua.LBool(false))
	}
	return 1
}

func (r *runner) set(id string, upd bridge.StateUpdate) {
	if err := r.engine.setter.SetLightState(r.ctx, id, upd); err != nil && r.ctx.Err() == nil {
		log.Printf("[Pattern] Light %s update failed: %v", id, err)
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
