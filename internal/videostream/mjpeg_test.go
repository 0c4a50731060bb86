// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videostream

import (
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	return img
}

func TestMJPEGHandlerStreamsParts(t *testing.T) {
	hub := broadcast.NewHub[*image.RGBA](broadcast.NewCountNode())
	srv := httptest.NewServer(NewMJPEGHandler(hub, 80))
	defer srv.Close()

	// Feed frames until the hub is closed; the subscriber inside the
	// handler picks up whichever publishes land after it subscribes.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				hub.Publish(testImage())
			}
		}
	}()
	defer close(stop)
	defer hub.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		t.Fatalf("media type: got %q", mediaType)
	}
	if params["boundary"] != "mjpeg_rs_boundary" {
		t.Fatalf("boundary: got %q, want mjpeg_rs_boundary", params["boundary"])
	}

	mr := multipart.NewReader(resp.Body, params["boundary"])
	for i := 0; i < 2; i++ {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("part %d: %s", i, err)
		}
		if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Fatalf("part %d: Content-Type %q, want image/jpeg", i, ct)
		}
		img, err := jpeg.Decode(part)
		if err != nil {
			t.Fatalf("part %d: decoding: %s", i, err)
		}
		if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
			t.Fatalf("part %d: decoded %dx%d, want 8x8", i, b.Dx(), b.Dy())
		}
	}
}

func TestMJPEGHandlerDefaultsQuality(t *testing.T) {
	hub := broadcast.NewHub[*image.RGBA](broadcast.NewCountNode())
	h := NewMJPEGHandler(hub, 0)
	if h.quality != jpeg.DefaultQuality {
		t.Fatalf("quality: got %d, want jpeg.DefaultQuality", h.quality)
	}
}
