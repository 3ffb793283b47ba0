package species

import "math"

// Color is an RGB display color for a species.
type Color struct {
	R, G, B uint8
}

// palette is a fixed set of distinct colors indexed by species id.
var palette = distinctColors(64)

func colorFor(id ID) Color {
	return palette[int(id)%len(palette)]
}

// distinctColors spreads hues by the golden angle.
func distinctColors(count int) []Color {
	const goldenAngle = 137.508
	colors := make([]Color, count)
	for i := range colors {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := hsvToRGB(hue, 0.7, 0.9)
		colors[i] = Color{R: r, G: g, B: b}
	}
	return colors
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}
