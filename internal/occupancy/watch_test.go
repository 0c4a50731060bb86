// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package occupancy

import (
	"testing"
	"time"
)

func TestCountWatchValueStartsZero(t *testing.T) {
	w := NewCountWatch()
	count, gen := w.Value()
	if count != 0 || gen != 0 {
		t.Fatalf("expected (0, 0), got (%d, %d)", count, gen)
	}
}

func TestCountWatchSetWakesBlockedNext(t *testing.T) {
	w := NewCountWatch()
	done := make(chan int, 1)
	go func() {
		count, _ := w.Next(0)
		done <- count
	}()

	// Give Next time to start blocking before publishing.
	time.Sleep(10 * time.Millisecond)
	w.set(1)

	select {
	case count := <-done:
		if count != 1 {
			t.Fatalf("expected count 1, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("Next never woke up after set changed the value")
	}
}

func TestCountWatchSetSameValueDoesNotAdvanceGeneration(t *testing.T) {
	w := NewCountWatch()
	w.set(5)
	_, firstGen := w.Value()
	w.set(5)
	_, secondGen := w.Value()
	if secondGen != firstGen {
		t.Fatalf("publishing the already-current value must not bump the generation: %d -> %d", firstGen, secondGen)
	}
}

func TestCountWatchFirstSetAlwaysAdvances(t *testing.T) {
	// The very first set(0) must still publish a new generation so an
	// initial Next(0) caller is not left blocked forever waiting for a
	// transition away from the zero value it already saw.
	w := NewCountWatch()
	done := make(chan int, 1)
	go func() {
		count, _ := w.Next(0)
		done <- count
	}()
	time.Sleep(10 * time.Millisecond)
	w.set(0)

	select {
	case count := <-done:
		if count != 0 {
			t.Fatalf("expected count 0, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("Next never woke up after the first set, even though gen must advance from 0")
	}
}
