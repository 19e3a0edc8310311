package bridge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleBrightness(t *testing.T) {
	assert.Equal(t, uint8(0), ScaleBrightness(0))
	assert.Equal(t, uint8(127), ScaleBrightness(50))
	assert.Equal(t, uint8(254), ScaleBrightness(100))

	// Out-of-range inputs clamp instead of wrapping.
	assert.Equal(t, uint8(0), ScaleBrightness(-5))
	assert.Equal(t, uint8(254), ScaleBrightness(150))

	for pct := 0; pct <= 100; pct++ {
		want := uint8(math.Round(float64(pct) / 100 * 254))
		got := ScaleBrightness(pct)
		require.Equal(t, want, got, "pct=%d", pct)
		require.LessOrEqual(t, got, uint8(254))
	}
}

func TestKelvinToMirek(t *testing.T) {
	assert.Equal(t, uint16(500), KelvinToMirek(2000))
	assert.Equal(t, uint16(250), KelvinToMirek(4000))
	assert.Equal(t, uint16(154), KelvinToMirek(6500))

	for k := 2000; k <= 6500; k += 50 {
		want := uint16(math.Round(1_000_000 / float64(k)))
		got := KelvinToMirek(k)
		require.Equal(t, want, got, "kelvin=%d", k)
		require.GreaterOrEqual(t, got, uint16(154))
		require.LessOrEqual(t, got, uint16(500))
	}

	// Values outside the supported band clamp to its edges.
	assert.Equal(t, uint16(500), KelvinToMirek(1000))
	assert.Equal(t, uint16(154), KelvinToMirek(9000))
}

func TestMirekToKelvin(t *testing.T) {
	assert.Equal(t, 2000, MirekToKelvin(500))
	assert.Equal(t, 4000, MirekToKelvin(250))
	// Zero mired means the bridge reported no temperature.
	assert.Equal(t, 0, MirekToKelvin(0))
}

func TestRGBToXY(t *testing.T) {
	// White lands near the D65 white point.
	x, y := rgbToXY(255, 255, 255)
	assert.InDelta(t, 0.3127, float64(x), 0.02)
	assert.InDelta(t, 0.3290, float64(y), 0.02)

	// Pure red sits far to the right of the gamut.
	x, _ = rgbToXY(255, 0, 0)
	assert.Greater(t, float64(x), 0.6)

	// Pure blue has a very low y.
	_, y = rgbToXY(0, 0, 255)
	assert.Less(t, float64(y), 0.1)

	// Black has no chromaticity and falls back to the white point.
	x, y = rgbToXY(0, 0, 0)
	assert.Equal(t, float32(0.3127), x)
	assert.Equal(t, float32(0.3290), y)
}
