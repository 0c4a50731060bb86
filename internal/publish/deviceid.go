// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package publish maintains the small set of named occupancy values
// (status, ambient temperature, occupied flag, person count) and
// debounce-publishes them to an MQTT broker.
package publish

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// applicationKey is the fixed 16-byte key embedded in the binary for
// the device-UID HMAC. As a privacy measure the machine ID itself is
// never used directly as the device identifier.
var applicationKey = [16]byte{
	0x64, 0x6c, 0x30, 0xc3, 0x41, 0xd7, 0x47, 0x40,
	0x8b, 0x1e, 0xe0, 0x78, 0xf7, 0x4c, 0x73, 0xe0,
}

// machineIDPaths are tried in order; the first readable one wins.
var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// DeviceUID derives a stable per-device identifier:
// read the OS machine identifier, keep only its hex digits, decode to
// bytes, HMAC-SHA256 with the embedded application key, truncate to 16
// bytes, and encode as URL-safe base64 without padding. If no machine
// identifier is readable, fallbackName's bytes are hashed instead, so
// the derivation never fails outright.
func DeviceUID(fallbackName string) string {
	raw, err := readMachineID()
	if err != nil {
		raw = []byte(fallbackName)
	}
	mac := hmac.New(sha256.New, applicationKey[:])
	mac.Write(raw)
	sum := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}

func readMachineID() ([]byte, error) {
	var lastErr error
	for _, path := range machineIDPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		return hex.DecodeString(extractHexDigits(string(data)))
	}
	return nil, fmt.Errorf("publish: no machine-id file found: %w", lastErr)
}

func extractHexDigits(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
