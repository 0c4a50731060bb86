// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Gradient maps a unit interval to a color, interpolating between its
// stops in CIE-Lab space so the ramp is perceptually even. Only the
// lookup mechanism and a couple of built-in stop lists live here; a
// fuller gradient catalog can be layered on from outside.
type Gradient struct {
	stops []colorful.Color
}

var gradientCatalog = map[string][]colorful.Color{
	"inferno": {
		colorful.Color{R: 0.001, G: 0.000, B: 0.014},
		colorful.Color{R: 0.259, G: 0.039, B: 0.408},
		colorful.Color{R: 0.576, G: 0.149, B: 0.404},
		colorful.Color{R: 0.865, G: 0.316, B: 0.227},
		colorful.Color{R: 0.988, G: 0.645, B: 0.039},
		colorful.Color{R: 0.988, G: 1.000, B: 0.645},
	},
	"grayscale": {
		colorful.Color{R: 0, G: 0, B: 0},
		colorful.Color{R: 1, G: 1, B: 1},
	},
}

// NewGradient looks up a named gradient, falling back to "inferno" for
// an unknown id.
func NewGradient(id string) Gradient {
	stops, ok := gradientCatalog[id]
	if !ok {
		stops = gradientCatalog["inferno"]
	}
	return Gradient{stops: stops}
}

// At returns the interpolated color for t, clamped to [0,1].
func (g Gradient) At(t float64) color.NRGBA {
	if t <= 0 {
		return toNRGBA(g.stops[0])
	}
	if t >= 1 {
		return toNRGBA(g.stops[len(g.stops)-1])
	}
	n := len(g.stops) - 1
	scaled := t * float64(n)
	i := int(scaled)
	if i >= n {
		i = n - 1
	}
	frac := scaled - float64(i)
	return toNRGBA(g.stops[i].BlendLab(g.stops[i+1], frac))
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// relativeLuminance implements the W3C sRGB relative-luminance formula
// (sRGB linearization, coefficients 0.2126/0.7152/0.0722).
func relativeLuminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	linear := func(v uint32) float64 {
		s := float64(v) / 65535
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

// contrastRatio implements the W3C contrast-ratio formula,
// (L_max+0.05)/(L_min+0.05).
func contrastRatio(a, b color.Color) float64 {
	la, lb := relativeLuminance(a), relativeLuminance(b)
	hi, lo := la, lb
	if lb > la {
		hi, lo = lb, la
	}
	return (hi + 0.05) / (lo + 0.05)
}

// textColor picks whichever of black or white has the higher contrast
// ratio against bg.
func textColor(bg color.Color) color.Color {
	if contrastRatio(bg, color.Black) >= contrastRatio(bg, color.White) {
		return color.Black
	}
	return color.White
}
