// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videostream exposes the renderer's output as an MJPEG HTTP
// stream and a raw-frame WebSocket debug feed.
package videostream

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"net"
	"net/http"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
)

const boundary = "mjpeg_rs_boundary"

// MJPEGHandler serves a multipart/x-mixed-replace stream of the images
// published to hub, one part per frame, JPEG-encoded at quality.
type MJPEGHandler struct {
	hub     *broadcast.Hub[*image.RGBA]
	quality int
}

// NewMJPEGHandler wraps hub. quality is passed to image/jpeg's
// encoder; 0 selects jpeg.DefaultQuality.
func NewMJPEGHandler(hub *broadcast.Hub[*image.RGBA], quality int) *MJPEGHandler {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	return &MJPEGHandler{hub: hub, quality: quality}
}

func (m *MJPEGHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", boundary))
	w.WriteHeader(http.StatusOK)

	sub := m.hub.Subscribe()
	defer sub.Release()

	buf := &bytes.Buffer{}
	for {
		img, ok := sub.Next()
		if !ok {
			return
		}
		buf.Reset()
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: m.quality}); err != nil {
			log.Printf("videostream: encoding frame: %s", err)
			continue
		}
		fmt.Fprintf(w, "\r\n--%s\r\nContent-Type: image/jpeg\r\n\r\n", boundary)
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		default:
		}
	}
}

// loggingHandler wraps an http.Handler and logs each request's method,
// path, remote address, response status and byte count.
type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (int, error) {
	size, err := l.ResponseWriter.Write(data)
	l.length += size
	return size, err
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for the WebSocket handler.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h := l.ResponseWriter.(http.Hijacker)
	return h.Hijack()
}

// Flush is needed for the MJPEG handler.
func (l *loggingResponseWriter) Flush() {
	if f, ok := l.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}

// WithLogging wraps mux so every request is logged with its status,
// byte count, method and path.
func WithLogging(mux http.Handler) http.Handler {
	return loggingHandler{handler: mux}
}
