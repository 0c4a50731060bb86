// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the daemon's JSON configuration file: the Go
// struct plus defaults, no schema layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tinkersloth/thermwatch/internal/capture"
	"github.com/tinkersloth/thermwatch/internal/occupancy"
	"github.com/tinkersloth/thermwatch/internal/render"
)

// Config is the daemon's full runtime configuration.
type Config struct {
	// HTTPPort is the port the video stream endpoints listen on.
	HTTPPort int `json:"http_port"`

	// Orientation is applied to every raw measurement before it becomes a Frame.
	Orientation capture.Orientation `json:"orientation"`

	Render  render.Settings           `json:"render"`
	Tracker occupancy.TrackerSettings `json:"tracker"`

	// RecordPath, if non-empty, enables writing every frame to this file.
	RecordPath string `json:"record_path,omitempty"`

	MQTT MQTTConfig `json:"mqtt"`
}

// MQTTConfig configures the state publisher's broker connection.
type MQTTConfig struct {
	// Broker is a URL such as "tcp://host:1883".
	Broker string `json:"broker"`
	// BaseTopic is the prefix every published topic is rooted under.
	BaseTopic string `json:"base_topic"`
	// DeviceUID, if set, overrides the machine-id-derived device UID.
	DeviceUID string `json:"device_uid,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTPPort: 8080,
		Render:   render.DefaultSettings(),
		Tracker:  occupancy.DefaultTrackerSettings(),
		MQTT: MQTTConfig{
			BaseTopic: "thermwatch",
		},
	}
}

// Load reads and decodes the JSON config file at path over top of
// Default, so a partial file only overrides what it specifies.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, nil
}
