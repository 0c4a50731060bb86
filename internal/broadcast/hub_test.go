// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package broadcast

import (
	"testing"
	"time"
)

func TestHubNotReadyWithoutSubscribers(t *testing.T) {
	h := NewHub[int](NewCountNode())
	if h.Ready() {
		t.Fatal("a freshly created hub must not be ready before any subscriber exists")
	}
}

func TestHubPublishWithoutSubscriberCountsDroppedSend(t *testing.T) {
	h := NewHub[int](NewCountNode())
	h.Publish(1)
	if h.DroppedSends != 1 {
		t.Fatalf("expected 1 dropped send, got %d", h.DroppedSends)
	}
}

func TestHubSubscriberReceivesLatestValue(t *testing.T) {
	h := NewHub[int](NewCountNode())
	sub := h.Subscribe()
	defer sub.Release()

	if !h.Ready() {
		t.Fatal("hub must be ready once a subscriber exists")
	}

	h.Publish(7)
	v, ok := sub.Next()
	if !ok || v != 7 {
		t.Fatalf("expected (7, true), got (%d, %v)", v, ok)
	}
}

func TestHubSubscriberSeesOnlyLatestOfMultiplePublishes(t *testing.T) {
	h := NewHub[int](NewCountNode())
	sub := h.Subscribe()
	defer sub.Release()

	h.Publish(1)
	h.Publish(2)
	h.Publish(3)

	v, ok := sub.Next()
	if !ok || v != 3 {
		t.Fatalf("expected the latest published value 3, got (%d, %v)", v, ok)
	}
}

func TestHubNextBlocksUntilPublish(t *testing.T) {
	h := NewHub[int](NewCountNode())
	sub := h.Subscribe()
	defer sub.Release()

	done := make(chan int, 1)
	go func() {
		v, _ := sub.Next()
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Next returned before any value was published")
	default:
	}

	h.Publish(42)
	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Next never woke up after Publish")
	}
}

func TestHubCloseUnblocksSubscribers(t *testing.T) {
	h := NewHub[int](NewCountNode())
	sub := h.Subscribe()
	defer sub.Release()

	done := make(chan bool, 1)
	go func() {
		_, ok := sub.Next()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	h.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Next to report ok=false after the hub closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Next never woke up after Close")
	}
}

func TestHubReleaseDropsPresence(t *testing.T) {
	h := NewHub[int](NewCountNode())
	sub := h.Subscribe()
	if !h.Ready() {
		t.Fatal("expected hub to be ready with one live subscriber")
	}
	sub.Release()
	if h.Ready() {
		t.Fatal("expected hub to not be ready once its only subscriber released")
	}
}

func TestHubChildNodePropagatesPresenceUpstream(t *testing.T) {
	root := NewCountNode()
	child := root.Child()
	upstream := NewHub[int](root)
	downstream := NewHub[int](child)

	if upstream.Ready() {
		t.Fatal("upstream hub should not be ready before any subscriber exists on either hub")
	}

	sub := downstream.Subscribe()
	defer sub.Release()

	if !upstream.Ready() {
		t.Fatal("a downstream subscriber must make the upstream node ready too")
	}
}
