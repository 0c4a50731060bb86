// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsDispatchedFunction(t *testing.T) {
	p := NewPool(2)
	done := make(chan struct{})
	if err := p.Dispatch(context.Background(), func() { close(done) }); err != nil {
		t.Fatalf("Dispatch: %s", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatched function never ran")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(1)
	var running int32
	var maxObserved int32
	var wg sync.WaitGroup
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Dispatch(context.Background(), func() {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&maxObserved)
					if n <= old || atomic.CompareAndSwapInt32(&maxObserved, old, n) {
						break
					}
				}
				<-release
				atomic.AddInt32(&running, -1)
			})
			if err != nil {
				t.Errorf("Dispatch: %s", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if maxObserved > 1 {
		t.Fatalf("pool with 1 worker allowed %d concurrent tasks", maxObserved)
	}
}

func TestPoolDispatchRespectsContextCancellation(t *testing.T) {
	p := NewPool(1)
	block := make(chan struct{})
	if err := p.Dispatch(context.Background(), func() { <-block }); err != nil {
		t.Fatalf("first Dispatch: %s", err)
	}
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Dispatch(ctx, func() {}); err == nil {
		t.Fatal("expected Dispatch to fail once the pool is saturated and the context expires")
	}
}
