// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
)

// boxcar is a fixed-depth moving-average window over the last N
// frames' per-frame min/max, backing the Dynamic scale bounds.
type boxcar struct {
	values []float64
	cap    int
}

func newBoxcar(depth int) *boxcar { return &boxcar{cap: depth} }

func (b *boxcar) push(v float64) {
	b.values = append(b.values, v)
	if len(b.values) > b.cap {
		b.values = b.values[len(b.values)-b.cap:]
	}
}

func (b *boxcar) average() float64 {
	if len(b.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range b.values {
		sum += v
	}
	return sum / float64(len(b.values))
}

// Renderer maps thermal grids into colorized, enlarged RGBA images and
// publishes them to a second broadcast.Hub, identical in contract to
// internal/broadcast's frame fan-out, feeding downstream stream
// subscribers.
type Renderer struct {
	settings  Settings
	gradient  Gradient
	glyphs    *glyphCache
	lowerHist *boxcar
	upperHist *boxcar
	hub       *broadcast.Hub[*image.RGBA]
}

// NewRenderer builds a Renderer. node roots (or extends) the
// presence-counter tree gating this renderer's own hub.
func NewRenderer(s Settings, node *broadcast.CountNode) (*Renderer, error) {
	glyphs, err := newGlyphCache()
	if err != nil {
		return nil, err
	}
	return &Renderer{
		settings:  s,
		gradient:  NewGradient(s.GradientID),
		glyphs:    glyphs,
		lowerHist: newBoxcar(10),
		upperHist: newBoxcar(10),
		hub:       broadcast.NewHub[*image.RGBA](node),
	}, nil
}

// Hub is the downstream fan-out of rendered images; video-stream
// subscribers subscribe here.
func (r *Renderer) Hub() *broadcast.Hub[*image.RGBA] { return r.hub }

// Render processes one width×height grid of Celsius samples:
// scale-limit determination, linear mapping into the chosen gradient,
// enlargement, and the optional numeric overlay. The result is
// published to Hub and also returned directly.
func (r *Renderer) Render(values []float64, width, height int) *image.RGBA {
	frameMin, frameMax := minMax(values)
	r.lowerHist.push(frameMin)
	r.upperHist.push(frameMax)

	lower := boundValue(r.settings.Limits.Lower, r.lowerHist)
	upper := boundValue(r.settings.Limits.Upper, r.upperHist)
	if upper-lower < minimumSpread {
		switch {
		case r.settings.Limits.Upper.Dynamic:
			upper = lower + minimumSpread
		case r.settings.Limits.Lower.Dynamic:
			lower = upper - minimumSpread
		}
	}

	small := image.NewNRGBA(image.Rect(0, 0, width, height))
	span := upper - lower
	if span <= 0 {
		span = 1
	}
	for i, v := range values {
		t := (v - lower) / span
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		small.SetNRGBA(i%width, i/width, r.gradient.At(t))
	}

	out := enlarge(small, r.settings.GridScale, r.settings.Method)

	if r.settings.Overlay.Enabled {
		scale := r.settings.GridScale
		for i, v := range values {
			x, y := i%width, i/width
			label := formatLabel(v, r.settings.Overlay.Unit)
			bg := small.NRGBAAt(x, y)
			drawOverlay(out, x*scale, y*scale, scale, label, bg, r.glyphs)
		}
	}

	r.hub.Publish(out)
	return out
}

func boundValue(b Bound, hist *boxcar) float64 {
	if b.Dynamic {
		return hist.average()
	}
	return b.Value
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
