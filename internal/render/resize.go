// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// enlarge replicates src into a (W*scale)x(H*scale) image. The default
// nearest-neighbor path is a hand-rolled block-replicate loop: a
// generic resize library call is measurably slower than a dedicated
// tile blit at the tiny grid sizes (8x8 to 32x24) this system
// enlarges, which matters on a 1GHz ARM-class CPU. The optional
// smoother filters use golang.org/x/image/draw.
func enlarge(src *image.NRGBA, scale int, method Method) *image.RGBA {
	if method == Nearest {
		return enlargeNearest(src, scale)
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	var scaler xdraw.Scaler
	switch method {
	case Triangle:
		scaler = xdraw.ApproxBiLinear
	case CatmullRom:
		scaler = xdraw.CatmullRom
	case BiLinear:
		scaler = xdraw.BiLinear
	default:
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// enlargeNearest replicates each source pixel into a scale×scale block.
func enlargeNearest(src *image.NRGBA, scale int) *image.RGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			c := [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
			blockFill(dst, x*scale, y*scale, scale, c)
		}
	}
	return dst
}

func blockFill(dst *image.RGBA, x0, y0, scale int, c [4]uint8) {
	for dy := 0; dy < scale; dy++ {
		row := dst.PixOffset(x0, y0+dy)
		for dx := 0; dx < scale; dx++ {
			i := row + dx*4
			dst.Pix[i] = c[0]
			dst.Pix[i+1] = c[1]
			dst.Pix[i+2] = c[2]
			dst.Pix[i+3] = c[3]
		}
	}
}
