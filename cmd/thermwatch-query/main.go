// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermwatch-query talks to the sensor directly over I2C, takes a
// single measurement, and prints it, without starting the rest of the
// pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/tinkersloth/thermwatch/internal/sensor"
)

func mainImpl() error {
	i2cName := flag.String("i2c", "", "I²C bus to use")
	i2cHz := flag.Int("hz", 0, "I²C bus speed")
	addr := flag.Uint("addr", 0x33, "sensor I2C address")
	width := flag.Int("width", 32, "sensor grid width")
	height := flag.Int("height", 24, "sensor grid height")
	fps := flag.Uint("fps", 8, "frame rate to request before measuring")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*i2cName)
	if err != nil {
		return err
	}
	defer bus.Close()
	if *i2cHz != 0 {
		if err := bus.SetSpeed(physic.Frequency(*i2cHz) * physic.Hertz); err != nil {
			return err
		}
	}

	drv := sensor.NewI2CDriver(bus, uint16(*addr), *width, *height)
	defer drv.Close()

	if err := drv.SetFrameRate(uint8(*fps)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := drv.Measure(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Width:      %d\n", m.Width)
	fmt.Printf("Height:     %d\n", m.Height)
	fmt.Printf("Ambient:    %.2f C\n", m.Ambient)
	fmt.Printf("FrameDelay: %s\n", m.FrameDelay)

	min, max := m.Grid[0], m.Grid[0]
	var sum float64
	for _, v := range m.Grid {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += float64(v)
	}
	fmt.Printf("Min:        %.2f C\n", min)
	fmt.Printf("Max:        %.2f C\n", max)
	fmt.Printf("Mean:       %.2f C\n", sum/float64(len(m.Grid)))
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermwatch-query: %s.\n", err)
		os.Exit(1)
	}
}
