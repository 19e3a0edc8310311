package bridge

import (
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHueStateDefaultsPowerOn(t *testing.T) {
	// An update without an explicit power field still sends on=true;
	// the v1 API has no way to leave "on" out.
	st := toHueState(StateUpdate{Bri: Ptr(uint8(200))})
	assert.True(t, st.On)
	assert.Equal(t, uint8(200), st.Bri)

	st = toHueState(StateUpdate{On: Ptr(false)})
	assert.False(t, st.On)
}

func TestToHueStateColorBecomesXY(t *testing.T) {
	st := toHueState(StateUpdate{RGB: &[3]uint8{255, 0, 0}})
	require.Len(t, st.Xy, 2)
	assert.Greater(t, st.Xy[0], float32(0.6))
	assert.Nil(t, toHueState(StateUpdate{}).Xy)
}

func TestToHueStatePassthroughFields(t *testing.T) {
	st := toHueState(StateUpdate{
		Ct:             Ptr(uint16(250)),
		Effect:         "colorloop",
		TransitionTime: Ptr(uint16(0)),
	})
	assert.Equal(t, uint16(250), st.Ct)
	assert.Equal(t, "colorloop", st.Effect)
	assert.Equal(t, uint16(0), st.TransitionTime)
}

func TestFromHueState(t *testing.T) {
	assert.Nil(t, fromHueState(nil))

	got := fromHueState(&huego.State{On: true, Bri: 254, Ct: 366, Reachable: true})
	require.NotNil(t, got)
	assert.True(t, got.On)
	assert.Equal(t, uint8(254), got.Bri)
	assert.Equal(t, uint16(366), got.Ct)
	assert.Equal(t, 2732, got.Kelvin)
	assert.True(t, got.Reachable)

	// A light without a ct reading projects no Kelvin value.
	got = fromHueState(&huego.State{On: true})
	assert.Zero(t, got.Kelvin)
}
