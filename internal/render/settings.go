// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render maps a capture.Frame's temperature grid into a
// colorized, enlarged RGBA image with an optional per-cell numeric
// overlay, and fans out the result to stream subscribers exactly like
// internal/broadcast's frame fan-out.
package render

// TemperatureUnit selects the unit used by the optional numeric
// overlay.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

// Bound is one end of the color-scale range. A Dynamic bound is
// boxcar-averaged over recent frames' min/max; a Static bound is fixed
// at Value.
type Bound struct {
	Dynamic bool
	Value   float64 // °C; unused when Dynamic is true.
}

// Static returns a fixed bound at v degrees Celsius.
func Static(v float64) Bound { return Bound{Value: v} }

// DynamicBound returns a bound that tracks the boxcar-averaged recent
// frame min/max.
func DynamicBound() Bound { return Bound{Dynamic: true} }

// ScaleLimits configures the renderer's lower and upper color-mapping
// bounds.
type ScaleLimits struct {
	Lower Bound
	Upper Bound
}

// Method selects the enlargement filter. Nearest is the reference path
// and the required performance target (≥10fps at G=50 on a 1GHz
// ARM-class CPU); the others are optional smoother alternatives.
type Method int

const (
	Nearest Method = iota
	Triangle
	CatmullRom
	BiLinear
)

// OverlayConfig controls the optional per-cell numeric temperature
// label.
type OverlayConfig struct {
	Enabled bool
	Unit    TemperatureUnit
}

// Settings configures a Renderer.
type Settings struct {
	Limits     ScaleLimits
	GridScale  int // G: each source pixel becomes a GridScale×GridScale block. Default 50.
	Method     Method
	Overlay    OverlayConfig
	GradientID string // key into the gradient catalog; see gradient.go
}

// DefaultSettings is the renderer configuration used unless a
// deployment overrides it.
func DefaultSettings() Settings {
	return Settings{
		Limits:     ScaleLimits{Lower: DynamicBound(), Upper: DynamicBound()},
		GridScale:  50,
		Method:     Nearest,
		GradientID: "inferno",
	}
}

// minimumSpread is the floor enforced on dynamic-bound spreads, so a
// near-uniform room does not amplify sensor noise into rainbow static.
const minimumSpread = 5.0
