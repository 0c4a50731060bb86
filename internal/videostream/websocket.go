// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videostream

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	"golang.org/x/net/websocket"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
	"github.com/tinkersloth/thermwatch/internal/capture"
)

// rawFrameMeta is sent as a JSON line ahead of each frame's raw
// samples.
type rawFrameMeta struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Ambient   float32   `json:"ambient"`
	Captured  time.Time `json:"captured"`
	PixelSize int       `json:"pixel_size"`
}

// RawWebSocketHandler streams every frame published to hub as a
// WebSocket message: a JSON metadata line, a newline, then the raw
// float32 samples base64-encoded. It is a debug aid, not a supported
// client protocol.
type RawWebSocketHandler struct {
	hub *broadcast.Hub[capture.Frame]
}

func NewRawWebSocketHandler(hub *broadcast.Hub[capture.Frame]) *RawWebSocketHandler {
	return &RawWebSocketHandler{hub: hub}
}

func (h *RawWebSocketHandler) Handler() websocket.Handler {
	return h.stream
}

func (h *RawWebSocketHandler) stream(ws *websocket.Conn) {
	log.Printf("videostream: websocket %s connected", ws.Request().RemoteAddr)
	defer ws.Close()

	sub := h.hub.Subscribe()
	defer sub.Release()

	buf := &bytes.Buffer{}
	for {
		frame, ok := sub.Next()
		if !ok {
			log.Printf("videostream: websocket %s closed", ws.Request().RemoteAddr)
			return
		}
		w, hgt := frame.Dimensions()
		meta := rawFrameMeta{
			Width:     w,
			Height:    hgt,
			Ambient:   frame.AmbientC(),
			Captured:  frame.CapturedAt(),
			PixelSize: 4,
		}
		buf.Reset()
		if err := json.NewEncoder(buf).Encode(&meta); err != nil {
			log.Printf("videostream: websocket %s: %s", ws.Request().RemoteAddr, err)
			return
		}
		buf.WriteByte('\n')

		enc := base64.NewEncoder(base64.StdEncoding, buf)
		if err := binary.Write(enc, binary.LittleEndian, frame.Samples()); err != nil {
			log.Printf("videostream: websocket %s: %s", ws.Request().RemoteAddr, err)
			return
		}
		enc.Close()

		if _, err := ws.Write(buf.Bytes()); err != nil {
			log.Printf("videostream: websocket %s: %s", ws.Request().RemoteAddr, err)
			return
		}
	}
}
