// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermwatch-replay drives the occupancy tracker from a recorder file
// instead of a live sensor, printing the derived person count for
// every frame. It is what exercises the recorded end-to-end scenarios
// offline.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tinkersloth/thermwatch/internal/occupancy"
	"github.com/tinkersloth/thermwatch/internal/recorder"
)

func mainImpl() error {
	quiet := flag.Bool("quiet", false, "only print frames where the count changes")
	flag.Parse()

	if flag.NArg() != 1 {
		return errors.New("supply path to a recorder file")
	}

	r, err := recorder.Open(flag.Args()[0])
	if err != nil {
		return err
	}
	defer r.Close()

	settings := occupancy.DefaultTrackerSettings()
	var tracker *occupancy.Tracker
	var clock time.Time
	lastCount := -1

	for i := 0; ; i++ {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if tracker == nil {
			tracker = occupancy.NewTracker(int(rec.Width), int(rec.Height), settings)
			clock = time.Unix(0, 0)
		}
		clock = clock.Add(rec.Delay)

		samples := make([]float64, len(rec.Values))
		for j, v := range rec.Values {
			samples[j] = float64(v)
		}
		tracker.Update(samples, clock)

		count := tracker.Count()
		if !*quiet || count != lastCount {
			fmt.Printf("frame %d: count=%d\n", i, count)
		}
		lastCount = count
	}

	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermwatch-replay: %s.\n", err)
		os.Exit(1)
	}
}
