// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image/color"
	"testing"
)

func TestGradientAtClampsToEndpoints(t *testing.T) {
	g := NewGradient("grayscale")
	black := g.At(-1)
	white := g.At(2)
	if black != (color.NRGBA{R: 0, G: 0, B: 0, A: 255}) {
		t.Fatalf("At(-1) should clamp to the first stop, got %v", black)
	}
	if white != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("At(2) should clamp to the last stop, got %v", white)
	}
}

func TestGradientUnknownIDFallsBackToInferno(t *testing.T) {
	known := NewGradient("inferno")
	unknown := NewGradient("not-a-real-gradient")
	if known.At(0.5) != unknown.At(0.5) {
		t.Fatal("an unknown gradient id should fall back to inferno")
	}
}

func TestGradientMidpointDiffersFromEndpoints(t *testing.T) {
	g := NewGradient("inferno")
	lo := g.At(0)
	mid := g.At(0.5)
	hi := g.At(1)
	if mid == lo || mid == hi {
		t.Fatalf("expected the midpoint color to differ from both endpoints: lo=%v mid=%v hi=%v", lo, mid, hi)
	}
}

func TestContrastRatioBlackVsWhiteIsMaximal(t *testing.T) {
	if got := contrastRatio(color.Black, color.White); got < 20 {
		t.Fatalf("expected black/white contrast ratio near 21, got %v", got)
	}
}

func TestContrastRatioIsSymmetric(t *testing.T) {
	a := color.NRGBA{R: 200, G: 50, B: 50, A: 255}
	b := color.NRGBA{R: 10, G: 10, B: 200, A: 255}
	if contrastRatio(a, b) != contrastRatio(b, a) {
		t.Fatal("contrastRatio must be symmetric")
	}
}

func TestTextColorChoosesHigherContrast(t *testing.T) {
	if got := textColor(color.White); got != color.Black {
		t.Fatalf("expected black text on a white background, got %v", got)
	}
	if got := textColor(color.Black); got != color.White {
		t.Fatalf("expected white text on a black background, got %v", got)
	}
}
