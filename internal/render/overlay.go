// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype/truetype"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// glyphKey identifies a cached rasterized label by its formatted text
// and the cell size it was rendered for. The formatted label is a
// deterministic function of temperature and unit, so this is
// equivalent to keying on (temperature, grid size).
type glyphKey struct {
	label string
	size  int
}

// glyphCache rasterizes per-cell temperature labels and caches the
// resulting alpha masks, bounded at ~50 entries (LRU), so identical
// labels across cells and frames are not re-rasterized.
type glyphCache struct {
	font  *truetype.Font
	cache *lru.Cache[glyphKey, *image.Alpha]
}

func newGlyphCache() (*glyphCache, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parsing overlay font: %w", err)
	}
	c, err := lru.New[glyphKey, *image.Alpha](50)
	if err != nil {
		return nil, fmt.Errorf("render: creating glyph cache: %w", err)
	}
	return &glyphCache{font: f, cache: c}, nil
}

// glyph returns the cached (or freshly rasterized) alpha mask for
// label at the given cell size.
func (g *glyphCache) glyph(label string, size int) *image.Alpha {
	key := glyphKey{label: label, size: size}
	if mask, ok := g.cache.Get(key); ok {
		return mask
	}
	face := truetype.NewFace(g.font, &truetype.Options{
		Size: float64(size) / 3.2,
		DPI:  72,
	})
	defer face.Close()

	d := &font.Drawer{Face: face}
	bounds, advance := d.BoundString(label)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if w <= 0 {
		w = advance.Ceil()
	}
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d.Dst = mask
	d.Src = image.NewUniform(color.Alpha{A: 255})
	d.Dot.X = -bounds.Min.X
	d.Dot.Y = -bounds.Min.Y
	d.DrawString(label)

	g.cache.Add(key, mask)
	return mask
}

// formatLabel renders a temperature with two decimal places, in the
// configured unit.
func formatLabel(celsius float64, unit TemperatureUnit) string {
	if unit == Fahrenheit {
		return fmt.Sprintf("%.2f", celsius*9/5+32)
	}
	return fmt.Sprintf("%.2f", celsius)
}

// drawOverlay centers label's rasterized glyph in the cell at
// (cellX,cellY) sized size×size on dst, colored for contrast against
// bg.
func drawOverlay(dst *image.RGBA, cellX, cellY, size int, label string, bg color.Color, cache *glyphCache) {
	mask := cache.glyph(label, size)
	mw, mh := mask.Bounds().Dx(), mask.Bounds().Dy()
	ox := cellX + (size-mw)/2
	oy := cellY + (size-mh)/2
	target := image.Rect(ox, oy, ox+mw, oy+mh).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	draw.DrawMask(dst, target, image.NewUniform(textColor(bg)), image.Point{}, mask, target.Min.Sub(image.Pt(ox, oy)), draw.Over)
}
