// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensor

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// vector is one moving Gaussian heat blob used by Fake to synthesize a
// plausible-looking grid.
type vector struct {
	intensity float32
	x, y      float64
	dx, dy    float64
}

// Fake is a synthetic driver used for development, demos, and tests. It
// renders a handful of moving warm blobs over a cool background, the way
// a real room with a person walking through it would look to a thermal
// grid sensor.
type Fake struct {
	w, h    int
	rng     *rand.Rand
	blobs   []vector
	fps     uint8
	frame   time.Duration
	closed  bool
	ambient float32
}

// NewFake returns a Fake driver producing w×h grids.
func NewFake(w, h int, seed int64) *Fake {
	f := &Fake{
		w:       w,
		h:       h,
		rng:     rand.New(rand.NewSource(seed)),
		fps:     9,
		frame:   time.Second / 9,
		ambient: 21.0,
	}
	for i := 0; i < 3; i++ {
		f.blobs = append(f.blobs, f.newBlob())
	}
	return f
}

func (f *Fake) newBlob() vector {
	return vector{
		intensity: float32(30 + f.rng.Float64()*8),
		x:         f.rng.Float64() * float64(f.w),
		y:         f.rng.Float64() * float64(f.h),
		dx:        (f.rng.Float64() - 0.5) * 0.6,
		dy:        (f.rng.Float64() - 0.5) * 0.6,
	}
}

// Measure returns immediately; pacing is left to the caller via the
// returned FrameDelay, the same contract the I2C driver provides.
func (f *Fake) Measure(ctx context.Context) (RawMeasurement, error) {
	if err := ctx.Err(); err != nil {
		return RawMeasurement{}, err
	}
	grid := make([]float32, f.w*f.h)
	for i := range grid {
		grid[i] = 21.0 + float32(f.rng.NormFloat64()*0.2)
	}
	for i := range f.blobs {
		b := &f.blobs[i]
		b.x += b.dx
		b.y += b.dy
		if b.x < 0 || b.x >= float64(f.w) {
			b.dx = -b.dx
		}
		if b.y < 0 || b.y >= float64(f.h) {
			b.dy = -b.dy
		}
		splat(grid, f.w, f.h, b.x, b.y, b.intensity)
	}
	return RawMeasurement{
		Grid:       grid,
		Width:      f.w,
		Height:     f.h,
		Ambient:    f.ambient,
		FrameDelay: f.frame,
	}, nil
}

// splat adds a soft Gaussian bump centered at (cx,cy) with the given
// peak intensity to grid.
func splat(grid []float32, w, h int, cx, cy float64, peak float32) {
	const radius = 2.2
	x0 := int(cx - radius*2)
	x1 := int(cx + radius*2)
	y0 := int(cy - radius*2)
	y1 := int(cy + radius*2)
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			d2 := dx*dx + dy*dy
			v := peak * float32(math.Exp(-d2/(2*radius*radius)))
			idx := y*w + x
			if grid[idx] < 21.0+v {
				grid[idx] = 21.0 + v
			}
		}
	}
}

func (f *Fake) SetFrameRate(fps uint8) error {
	if fps == 0 || fps > 30 {
		return &DriverError{Kind: UnsupportedRate}
	}
	f.fps = fps
	f.frame = time.Second / time.Duration(fps)
	return nil
}

func (f *Fake) Origin() Origin { return OriginTopLeft }
func (f *Fake) Width() int     { return f.w }
func (f *Fake) Height() int    { return f.h }
func (f *Fake) Close() error   { f.closed = true; return nil }
