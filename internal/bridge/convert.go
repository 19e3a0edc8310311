package bridge

import "math"

// ScaleBrightness maps a 0-100 percent value onto the bridge's 0-254 scale.
func ScaleBrightness(pct int) uint8 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return uint8(math.Round(float64(pct) / 100 * 254))
}

// KelvinToMirek converts a colour temperature in Kelvin to the bridge's
// reciprocal mired unit.
func KelvinToMirek(kelvin int) uint16 {
	if kelvin < 2000 {
		kelvin = 2000
	}
	if kelvin > 6500 {
		kelvin = 6500
	}
	return uint16(math.Round(1_000_000 / float64(kelvin)))
}

// MirekToKelvin is the inverse of KelvinToMirek, used when projecting
// bridge state back into Kelvin. Zero mired means the bridge reported
// no temperature and projects to zero.
func MirekToKelvin(mirek uint16) int {
	if mirek == 0 {
		return 0
	}
	return int(math.Round(1_000_000 / float64(mirek)))
}

// rgbToXY converts an 8-bit RGB triple to a CIE 1931 xy chromaticity pair,
// which is what the bridge accepts for arbitrary colours. Wide-gamut D65
// conversion with sRGB gamma correction.
func rgbToXY(r, g, b uint8) (float32, float32) {
	rf := gammaExpand(float64(r) / 255)
	gf := gammaExpand(float64(g) / 255)
	bf := gammaExpand(float64(b) / 255)

	x := rf*0.664511 + gf*0.154324 + bf*0.162028
	y := rf*0.283881 + gf*0.668433 + bf*0.047685
	z := rf*0.000088 + gf*0.072310 + bf*0.986039

	sum := x + y + z
	if sum == 0 {
		// Black has no chromaticity; fall back to the D65 white point.
		return 0.3127, 0.3290
	}
	return float32(x / sum), float32(y / sum)
}

func gammaExpand(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}
