// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many Render calls may run concurrently, so rendering
// never saturates the CPU. The capture loop stays on its own dedicated
// goroutine; render work goes through a bounded pool like the rest of
// the CPU-heavy pipeline stages.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a pool allowing at most workers concurrent Dispatch
// calls to run their function simultaneously.
func NewPool(workers int64) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(workers)}
}

// Dispatch blocks until a slot is free (or ctx is done), then runs fn
// on a new goroutine and returns without waiting for it to finish.
func (p *Pool) Dispatch(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}
