// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensor

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/periph/conn/i2c"
)

// Register addresses for an MLX9064x-class half-updating grid sensor:
// a status register indicating which subpage is ready, a control
// register for frame-rate selection, and a RAM page holding the raw
// pixel words for the subpage that just completed.
const (
	regStatus  = 0x8000
	regControl = 0x800d
	regRAM     = 0x0400
)

// supported frame rates, in fps, matching the control register's
// 3-bit refresh-rate field.
var supportedRates = [...]uint8{1, 2, 4, 8, 16, 32, 64}

// I2CDriver drives a half-updating grid sensor over I2C. It implements
// Driver.
type I2CDriver struct {
	bus    i2c.Bus
	addr   uint16
	w, h   int
	poll   *pollEstimator
	mu     sync.Mutex
	closed int32
}

// NewI2CDriver opens a sensor at the given I2C address on bus.
func NewI2CDriver(bus i2c.Bus, addr uint16, w, h int) *I2CDriver {
	nominal := time.Second / 8
	return &I2CDriver{
		bus:  bus,
		addr: addr,
		w:    w,
		h:    h,
		poll: newPollEstimator(nominal),
	}
}

func (d *I2CDriver) Origin() Origin { return OriginBottomLeft }
func (d *I2CDriver) Width() int     { return d.w }
func (d *I2CDriver) Height() int    { return d.h }

func (d *I2CDriver) Close() error {
	atomic.StoreInt32(&d.closed, 1)
	return nil
}

func (d *I2CDriver) readRegister(reg uint16) (uint16, error) {
	var addr [2]byte
	binary.BigEndian.PutUint16(addr[:], reg)
	var resp [2]byte
	if err := d.bus.Tx(d.addr, addr[:], resp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(resp[:]), nil
}

func (d *I2CDriver) writeRegister(reg, value uint16) error {
	var buf [4]byte
	binary.BigEndian.PutUint16(buf[0:2], reg)
	binary.BigEndian.PutUint16(buf[2:4], value)
	return d.bus.Tx(d.addr, buf[:], nil)
}

// readSubpage reads one half-frame worth of RAM words (w*h/2 pixels)
// into every second pixel of dst, starting at index subpage.
func (d *I2CDriver) readSubpage(dst []float32, subpage int) error {
	n := d.w * d.h / 2
	var addr [2]byte
	binary.BigEndian.PutUint16(addr[:], regRAM+uint16(subpage*n))
	raw := make([]byte, n*2)
	if err := d.bus.Tx(d.addr, addr[:], raw); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		counts := int16(binary.BigEndian.Uint16(raw[2*i : 2*i+2]))
		idx := i*2 + subpage
		if idx < len(dst) {
			dst[idx] = countsToCelsius(counts)
		}
	}
	return nil
}

// countsToCelsius converts a raw sensor count into a Celsius
// temperature using the sensor's linear transfer function.
func countsToCelsius(counts int16) float32 {
	return float32(counts) * 0.02
}

// Measure implements Driver. It polls the status register until both
// subpages of the current frame are marked ready, reading each as it
// lands, then feeds the observed poll count into the pacing estimator
// so the next call wakes just before the frame completes. It sets no
// deadline of its own: if the sensor never flags a subpage ready, it
// keeps polling until ctx is done.
func (d *I2CDriver) Measure(ctx context.Context) (RawMeasurement, error) {
	if atomic.LoadInt32(&d.closed) != 0 {
		return RawMeasurement{}, &DriverError{Kind: Transport, Err: fmt.Errorf("driver closed")}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	grid := make([]float32, d.w*d.h)
	polls := 0
	var waited time.Duration
	for subpage := 0; subpage < 2; subpage++ {
		n, wait, err := d.waitSubpageReady(ctx, subpage)
		polls += n
		waited += wait
		if err != nil {
			return RawMeasurement{}, &DriverError{Kind: Transport, Err: err}
		}
		if err := d.readSubpage(grid, subpage); err != nil {
			return RawMeasurement{}, &DriverError{Kind: Transport, Err: err}
		}
	}
	if polls > 0 {
		d.poll.observe(polls, waited/time.Duration(polls))
	}
	ambientRaw, err := d.readRegister(regStatus + 1)
	if err != nil {
		return RawMeasurement{}, &DriverError{Kind: Transport, Err: err}
	}
	return RawMeasurement{
		Grid:       grid,
		Width:      d.w,
		Height:     d.h,
		Ambient:    countsToCelsius(int16(ambientRaw)),
		FrameDelay: d.poll.frameDelay(time.Since(start)),
	}, nil
}

// waitSubpageReady polls the status register until the requested
// subpage is flagged ready, yielding the scheduler between polls, and
// returns the poll count and total time spent waiting.
func (d *I2CDriver) waitSubpageReady(ctx context.Context, subpage int) (int, time.Duration, error) {
	start := time.Now()
	for n := 1; ; n++ {
		status, err := d.readRegister(regStatus)
		if err != nil {
			return n, time.Since(start), err
		}
		if int(status&1) == subpage && status&0x8 != 0 {
			return n, time.Since(start), nil
		}
		if err := ctx.Err(); err != nil {
			return n, time.Since(start), err
		}
		runtime.Gosched()
	}
}

// SetFrameRate validates fps against the sensor's discrete refresh-rate
// set and writes the control register, resetting the pacing estimate.
func (d *I2CDriver) SetFrameRate(fps uint8) error {
	ok := false
	for _, r := range supportedRates {
		if r == fps {
			ok = true
			break
		}
	}
	if !ok {
		return &DriverError{Kind: UnsupportedRate}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	ctrl, err := d.readRegister(regControl)
	if err != nil {
		return &DriverError{Kind: Transport, Err: err}
	}
	var code uint16
	for i, r := range supportedRates {
		if r == fps {
			code = uint16(i)
		}
	}
	ctrl = (ctrl &^ (0x7 << 7)) | (code << 7)
	if err := d.writeRegister(regControl, ctrl); err != nil {
		return &DriverError{Kind: Transport, Err: err}
	}
	d.poll.reset(time.Second / time.Duration(fps))
	return nil
}
