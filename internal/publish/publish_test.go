// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type published struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

// fakeClient records every Publish call; all other mqtt.Client methods
// are inert.
type fakeClient struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakeClient) IsConnected() bool       { return true }
func (f *fakeClient) IsConnectionOpen() bool  { return true }
func (f *fakeClient) Connect() mqtt.Token     { return doneToken{} }
func (f *fakeClient) Disconnect(quiesce uint) {}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{
		topic:    topic,
		payload:  payload.(string),
		qos:      qos,
		retained: retained,
	})
	return doneToken{}
}

func (f *fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token { return doneToken{} }
func (f *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return doneToken{}
}
func (f *fakeClient) Unsubscribe(...string) mqtt.Token        { return doneToken{} }
func (f *fakeClient) AddRoute(string, mqtt.MessageHandler)    {}
func (f *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func (f *fakeClient) published() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

func TestPublisherTopics(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "home/thermal", "abc123")

	p.SetOnline(true)
	p.SetAmbient(21.5)
	p.SetOccupied(true)
	p.SetOccupancyCount(2)

	want := map[string]string{
		"home/thermal/abc123/status":          "online",
		"home/thermal/abc123/temperature":     "21.50",
		"home/thermal/abc123/occupied":        "true",
		"home/thermal/abc123/occupancy_count": "2",
	}
	got := c.published()
	if len(got) != len(want) {
		t.Fatalf("expected %d publishes, got %d: %+v", len(want), len(got), got)
	}
	for _, pub := range got {
		wantPayload, ok := want[pub.topic]
		if !ok {
			t.Fatalf("unexpected topic %q", pub.topic)
		}
		if pub.payload != wantPayload {
			t.Fatalf("topic %s: payload %q, want %q", pub.topic, pub.payload, wantPayload)
		}
		if !pub.retained {
			t.Fatalf("topic %s: expected a retained publish", pub.topic)
		}
		if pub.qos != 1 {
			t.Fatalf("topic %s: expected QoS 1 (at-least-once), got %d", pub.topic, pub.qos)
		}
	}
}

func TestPublisherDebouncesUnchangedValues(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "base", "dev")

	for i := 0; i < 5; i++ {
		p.SetOccupancyCount(1)
		p.SetOccupied(true)
		p.SetAmbient(20.0)
		p.SetOnline(true)
	}
	if got := len(c.published()); got != 4 {
		t.Fatalf("unchanged values must publish once each, got %d publishes", got)
	}

	p.SetOccupancyCount(2)
	if got := len(c.published()); got != 5 {
		t.Fatalf("a changed value must re-publish, got %d publishes", got)
	}
}

func TestPublisherStatusOfflineAfterOnline(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "base", "dev")
	p.SetOnline(true)
	p.SetOnline(false)
	got := c.published()
	if len(got) != 2 || got[1].payload != "offline" {
		t.Fatalf("expected online then offline, got %+v", got)
	}
}

func TestStatusTopic(t *testing.T) {
	if got, want := StatusTopic("base", "dev"), "base/dev/status"; got != want {
		t.Fatalf("StatusTopic: got %q, want %q", got, want)
	}
	p := NewPublisher(&fakeClient{}, "base", "dev")
	if p.StatusTopic() != "base/dev/status" {
		t.Fatalf("Publisher.StatusTopic: got %q", p.StatusTopic())
	}
}

func TestDeviceUIDShape(t *testing.T) {
	uid := DeviceUID("fallback-host")
	// 16 bytes of HMAC output encode to 22 base64 characters, no padding.
	if len(uid) != 22 {
		t.Fatalf("device UID length %d, want 22: %q", len(uid), uid)
	}
	if strings.ContainsAny(uid, "+/=") {
		t.Fatalf("device UID must be URL-safe base64 without padding: %q", uid)
	}
	if uid != DeviceUID("fallback-host") {
		t.Fatal("device UID must be stable across calls")
	}
}

func TestExtractHexDigits(t *testing.T) {
	got := extractHexDigits("A1b2-C3:z!\n9f")
	if got != "a1b2c39f" {
		t.Fatalf("extractHexDigits: got %q, want %q", got, "a1b2c39f")
	}
}
