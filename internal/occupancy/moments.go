// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package occupancy

import "math"

// HuMoments is the fixed seven-element rotation/translation/scale
// invariant shape descriptor derived from an object's weighted image
// moments.
type HuMoments [7]float64

// rawMoments holds M_ij for every (i,j) pair the Hu derivation needs, up
// to order 3.
type rawMoments struct {
	m00, m01, m10, m02, m11, m20, m03, m12, m21, m30 float64
}

// computeRawMoments sums the temperature-weighted raw moments over the
// given points. Mass weight is each point's temperature rather than a
// binary indicator: a deliberate deviation from textbook image moments
// so that warmer parts of an object (a torso versus bare floor at the
// edge of a silhouette) dominate the descriptor.
func computeRawMoments(points []PointTemperature) rawMoments {
	var r rawMoments
	for _, p := range points {
		x := float64(p.X)
		y := float64(p.Y)
		w := float64(p.Temperature)
		r.m00 += w
		r.m10 += w * x
		r.m01 += w * y
		r.m20 += w * x * x
		r.m11 += w * x * y
		r.m02 += w * y * y
		r.m30 += w * x * x * x
		r.m21 += w * x * x * y
		r.m12 += w * x * y * y
		r.m03 += w * y * y * y
	}
	return r
}

// centralMoments holds mu_ij for (i+j) in [2,3], computed about the
// centroid. mu_01 and mu_10 are zero by construction and are not stored.
type centralMoments struct {
	mu20, mu11, mu02, mu30, mu21, mu12, mu03 float64
}

func computeCentralMoments(points []PointTemperature, r rawMoments) centralMoments {
	if r.m00 == 0 {
		return centralMoments{}
	}
	cx := r.m10 / r.m00
	cy := r.m01 / r.m00
	var c centralMoments
	for _, p := range points {
		x := float64(p.X) - cx
		y := float64(p.Y) - cy
		w := float64(p.Temperature)
		c.mu20 += w * x * x
		c.mu11 += w * x * y
		c.mu02 += w * y * y
		c.mu30 += w * x * x * x
		c.mu21 += w * x * x * y
		c.mu12 += w * x * y * y
		c.mu03 += w * y * y * y
	}
	return c
}

// scaleInvariant computes eta_ij = mu_ij / m00^(1+(i+j)/2) for the
// moments of order 2 and 3.
type scaleInvariant struct {
	eta20, eta11, eta02, eta30, eta21, eta12, eta03 float64
}

func computeScaleInvariant(c centralMoments, m00 float64) scaleInvariant {
	if m00 == 0 {
		return scaleInvariant{}
	}
	n2 := math.Pow(m00, 1+2.0/2.0)
	n3 := math.Pow(m00, 1+3.0/2.0)
	return scaleInvariant{
		eta20: c.mu20 / n2,
		eta11: c.mu11 / n2,
		eta02: c.mu02 / n2,
		eta30: c.mu30 / n3,
		eta21: c.mu21 / n3,
		eta12: c.mu12 / n3,
		eta03: c.mu03 / n3,
	}
}

// huInvariants derives the seven classical Hu invariants from the
// scale-invariant moments.
func huInvariants(e scaleInvariant) HuMoments {
	n20m02 := e.eta20 - e.eta02
	n30m12 := e.eta30 - 3*e.eta12
	n3p12 := 3*e.eta21 - e.eta03
	p30_12 := e.eta30 + e.eta12
	p21_03 := e.eta21 + e.eta03

	h1 := e.eta20 + e.eta02
	h2 := n20m02*n20m02 + 4*e.eta11*e.eta11
	h3 := n30m12*n30m12 + n3p12*n3p12
	h4 := p30_12*p30_12 + p21_03*p21_03
	h5 := n30m12*p30_12*(p30_12*p30_12-3*p21_03*p21_03) +
		n3p12*p21_03*(3*p30_12*p30_12-p21_03*p21_03)
	h6 := n20m02*(p30_12*p30_12-p21_03*p21_03) + 4*e.eta11*p30_12*p21_03
	h7 := n3p12*p30_12*(p30_12*p30_12-3*p21_03*p21_03) -
		n30m12*p21_03*(3*p30_12*p30_12-p21_03*p21_03)

	return HuMoments{h1, h2, h3, h4, h5, h6, h7}
}

// shapeDescriptor computes the full Hu-moment descriptor for a set of
// temperature-weighted points.
func shapeDescriptor(points []PointTemperature) HuMoments {
	r := computeRawMoments(points)
	c := computeCentralMoments(points, r)
	e := computeScaleInvariant(c, r.m00)
	return huInvariants(e)
}

// squaredDistance is the squared Euclidean distance between two Hu
// vectors, used both as the tracker's correspondence distance and as the
// nearest-neighbor search metric.
func (h HuMoments) squaredDistance(o HuMoments) float64 {
	sum := 0.0
	for i := range h {
		d := h[i] - o[i]
		sum += d * d
	}
	return sum
}

// Finite reports whether every component of h is a finite float.
func (h HuMoments) Finite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
