// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// state debounces a single named value: Update reports whether value
// differs from the last-published one (or nothing has been published
// yet), so callers only touch the wire on an actual change.
type state[T comparable] struct {
	mu    sync.Mutex
	value T
	set   bool
	topic string
}

func newState[T comparable](topic string) *state[T] {
	return &state[T]{topic: topic}
}

func (s *state[T]) update(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set && s.value == value {
		return false
	}
	s.value = value
	s.set = true
	return true
}

// Publisher maintains the small set of named occupancy values (online
// status, ambient temperature, occupied flag, person count), each
// retained and debounced on value-equality, and publishes them at
// QoS 1 (at-least-once) over client.
type Publisher struct {
	client mqtt.Client

	status   *state[string]
	ambient  *state[float64]
	occupied *state[bool]
	count    *state[int64]
}

// StatusTopic returns the status topic for baseTopic/deviceUID. It is
// exported standalone so callers can configure an MQTT last-will
// before constructing the client (and therefore before NewPublisher).
func StatusTopic(baseTopic, deviceUID string) string {
	return baseTopic + "/" + deviceUID + "/status"
}

// NewPublisher builds a Publisher rooted at baseTopic/deviceUID.
func NewPublisher(client mqtt.Client, baseTopic, deviceUID string) *Publisher {
	base := baseTopic + "/" + deviceUID
	return &Publisher{
		client:   client,
		status:   newState[string](base + "/status"),
		ambient:  newState[float64](base + "/temperature"),
		occupied: newState[bool](base + "/occupied"),
		count:    newState[int64](base + "/occupancy_count"),
	}
}

// StatusTopic is the topic an MQTT last-will should target, so an
// ungraceful disconnect is observable as "offline" without this
// process having to run its own shutdown handler.
func (p *Publisher) StatusTopic() string { return p.status.topic }

func (p *Publisher) publish(topic, payload string) {
	token := p.client.Publish(topic, 1, true, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("publish: %s: timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("publish: %s: %s", topic, err)
		}
	}()
}

// SetOnline publishes the device's online/offline status.
func (p *Publisher) SetOnline(online bool) {
	value := "offline"
	if online {
		value = "online"
	}
	if p.status.update(value) {
		p.publish(p.status.topic, value)
	}
}

// SetAmbient publishes the room's current ambient temperature in
// Celsius.
func (p *Publisher) SetAmbient(celsius float64) {
	if p.ambient.update(celsius) {
		p.publish(p.ambient.topic, fmt.Sprintf("%.2f", celsius))
	}
}

// SetOccupied publishes whether any tracked object currently counts
// as a person.
func (p *Publisher) SetOccupied(occupied bool) {
	if p.occupied.update(occupied) {
		payload := "false"
		if occupied {
			payload = "true"
		}
		p.publish(p.occupied.topic, payload)
	}
}

// SetOccupancyCount publishes the current person count.
func (p *Publisher) SetOccupancyCount(n int) {
	v := int64(n)
	if p.count.update(v) {
		p.publish(p.count.topic, strconv.FormatInt(v, 10))
	}
}
