// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package capture drives a sensor.Driver on a dedicated goroutine and
// publishes orientation-normalized Frames to a broadcast hub.
package capture

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
	"github.com/tinkersloth/thermwatch/internal/sensor"
)

// Grid is an immutable H×W temperature grid, shared by reference among
// consumers via GridRef. No consumer may mutate the slice backing it.
type Grid struct {
	Values []float32
	Width  int
	Height int
}

func (g *Grid) At(x, y int) float32 { return g.Values[y*g.Width+x] }

// GridRef is a reference-counted handle to a Grid. Release must be
// called exactly once per handle: the one created with the frame and
// each additional one obtained via Ref.
type GridRef struct {
	grid *Grid
	refs *int32
}

func newGridRef(g *Grid) GridRef {
	n := int32(1)
	return GridRef{grid: g, refs: &n}
}

// Ref returns a new handle sharing the same underlying Grid, incrementing
// the refcount.
func (r GridRef) Ref() GridRef {
	atomic.AddInt32(r.refs, 1)
	return r
}

// Release decrements the refcount. The Grid itself has no destructor in
// Go (the GC reclaims it once unreferenced); Release exists so callers
// can assert balanced acquire/release in tests and so a future pooled
// allocator can recycle the backing slice.
func (r GridRef) Release() { atomic.AddInt32(r.refs, -1) }

func (r GridRef) Grid() *Grid { return r.grid }

// Dimensions returns the frame's width and height.
func (f Frame) Dimensions() (width, height int) {
	g := f.Ref.Grid()
	return g.Width, g.Height
}

// Samples returns the frame's row-major Celsius grid. Callers must not
// mutate the returned slice; it is shared with every other holder of
// the same GridRef.
func (f Frame) Samples() []float32 { return f.Ref.Grid().Values }

// AmbientC returns the sensor's reported ambient temperature in
// Celsius for this frame.
func (f Frame) AmbientC() float32 { return f.Ambient }

// CapturedAt returns the wall-clock time the frame was captured.
func (f Frame) CapturedAt() time.Time { return f.Captured }

// Frame is the post-orientation-normalized image handed to consumers.
// Origin is always top-left, Y axis down.
type Frame struct {
	Ref      GridRef
	Ambient  float32
	Captured time.Time
}

// Orientation describes the flip/rotate transform applied to every raw
// measurement before it becomes a Frame.
type Orientation struct {
	FlipVertical   bool
	FlipHorizontal bool
	RotationDeg    int // one of 0, 90, 180, 270
}

// Loop owns a sensor.Driver exclusively and runs the acquisition
// algorithm: drain commands, measure, orient, wrap, publish, sleep.
// Its control surface is Subscribe and Shutdown; frames flow out
// through the loop's own broadcast hub.
type Loop struct {
	driver      sensor.Driver
	orientation Orientation
	hub         *broadcast.Hub[Frame]
	commands    chan command
	done        chan struct{}
}

type command struct {
	shutdown bool
}

// NewLoop constructs a Loop publishing into hub, which the loop owns
// from here on. Hub.Publish never blocks on slow subscribers, so the
// capture cadence is independent of every consumer.
func NewLoop(driver sensor.Driver, o Orientation, hub *broadcast.Hub[Frame]) *Loop {
	return &Loop{
		driver:      driver,
		orientation: o,
		hub:         hub,
		commands:    make(chan command, 4),
		done:        make(chan struct{}),
	}
}

// Subscribe returns a fresh subscriber handle on the loop's frame
// fan-out. The handle's presence gates any upstream work tied to the
// hub's counter node; callers must Release it when done.
func (l *Loop) Subscribe() *broadcast.Subscriber[Frame] {
	return l.hub.Subscribe()
}

// Hub exposes the loop's fan-out for consumers that need the hub
// itself (e.g. to parent a downstream presence counter).
func (l *Loop) Hub() *broadcast.Hub[Frame] { return l.hub }

// Shutdown requests the loop terminate cleanly after its current
// iteration; it drains no additional frames. By the time Shutdown
// returns, the hub has been closed and subscribers have observed
// end-of-stream.
func (l *Loop) Shutdown() {
	l.commands <- command{shutdown: true}
	<-l.done
}

// Run executes the capture algorithm until Shutdown is called or the
// driver returns a fatal error. Capture errors are never retried; the
// loop exits and logs a single diagnostic line, matching the taxonomy in
// which driver/transport failures are fatal to the capture loop.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.hub.Close()
	for {
		select {
		case cmd := <-l.commands:
			if cmd.shutdown {
				return
			}
		default:
		}

		raw, err := l.driver.Measure(ctx)
		if err != nil {
			log.Printf("capture: fatal driver error: %s", err)
			return
		}

		grid := orient(raw, l.driver.Origin(), l.orientation)
		frame := Frame{
			Ref:      newGridRef(grid),
			Ambient:  raw.Ambient,
			Captured: time.Now(),
		}
		l.hub.Publish(frame)

		select {
		case <-time.After(raw.FrameDelay):
		case cmd := <-l.commands:
			if cmd.shutdown {
				return
			}
		}
	}
}

// orient applies the native-origin flip, the configured flips, and the
// configured rotation, in that order.
func orient(raw sensor.RawMeasurement, origin sensor.Origin, o Orientation) *Grid {
	w, h := raw.Width, raw.Height
	values := make([]float32, len(raw.Grid))
	copy(values, raw.Grid)
	g := &Grid{Values: values, Width: w, Height: h}

	flipV := o.FlipVertical
	if origin == sensor.OriginBottomLeft {
		flipV = !flipV
	}
	if flipV {
		g = flipVertical(g)
	}
	if o.FlipHorizontal {
		g = flipHorizontal(g)
	}
	switch ((o.RotationDeg % 360) + 360) % 360 {
	case 90:
		g = rotate90(g)
	case 180:
		g = rotate180(g)
	case 270:
		g = rotate270(g)
	}
	return g
}

func flipVertical(g *Grid) *Grid {
	out := make([]float32, len(g.Values))
	for y := 0; y < g.Height; y++ {
		srcRow := g.Values[y*g.Width : (y+1)*g.Width]
		dstY := g.Height - 1 - y
		copy(out[dstY*g.Width:(dstY+1)*g.Width], srcRow)
	}
	return &Grid{Values: out, Width: g.Width, Height: g.Height}
}

func flipHorizontal(g *Grid) *Grid {
	out := make([]float32, len(g.Values))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			out[y*g.Width+(g.Width-1-x)] = g.Values[y*g.Width+x]
		}
	}
	return &Grid{Values: out, Width: g.Width, Height: g.Height}
}

func rotate180(g *Grid) *Grid {
	return flipHorizontal(flipVertical(g))
}

func rotate90(g *Grid) *Grid {
	nw, nh := g.Height, g.Width
	out := make([]float32, len(g.Values))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			nx := g.Height - 1 - y
			ny := x
			out[ny*nw+nx] = g.Values[y*g.Width+x]
		}
	}
	return &Grid{Values: out, Width: nw, Height: nh}
}

func rotate270(g *Grid) *Grid {
	nw, nh := g.Height, g.Width
	out := make([]float32, len(g.Values))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			nx := y
			ny := g.Width - 1 - x
			out[ny*nw+nx] = g.Values[y*g.Width+x]
		}
	}
	return &Grid{Values: out, Width: nw, Height: nh}
}
