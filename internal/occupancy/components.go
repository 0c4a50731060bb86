// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package occupancy

import "time"

// Point is a pixel coordinate in a frame.
type Point struct {
	X, Y uint32
}

// PointTemperature is a pixel coordinate and its sampled temperature.
type PointTemperature struct {
	Point
	Temperature float32
}

// labelComponents builds an 8-connected labeling of the foreground mask
// (row-major, width×height) using a two-pass union-find scan. Label 0
// means background; labels ≥1 identify candidate objects.
func labelComponents(foreground []bool, width, height int) ([]int, int) {
	labels := make([]int, len(foreground))
	parent := []int{0} // parent[0] unused; labels are 1-based.

	find := func(x int) int {
		for parent[x] != x {
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}
	newLabel := func() int {
		parent = append(parent, len(parent))
		return len(parent) - 1
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if !foreground[idx] {
				continue
			}
			var neighbors []int
			for _, d := range [][2]int{{-1, 0}, {0, -1}, {-1, -1}, {1, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nIdx := ny*width + nx
				if foreground[nIdx] && labels[nIdx] != 0 {
					neighbors = append(neighbors, labels[nIdx])
				}
			}
			if len(neighbors) == 0 {
				labels[idx] = newLabel()
				continue
			}
			min := neighbors[0]
			for _, n := range neighbors[1:] {
				if n < min {
					min = n
				}
			}
			labels[idx] = min
			for _, n := range neighbors {
				union(min, n)
			}
		}
	}

	// Resolve to canonical roots and compact to a dense 1..K range.
	canonical := make(map[int]int)
	next := 1
	for i, l := range labels {
		if l == 0 {
			continue
		}
		root := find(l)
		c, ok := canonical[root]
		if !ok {
			c = next
			canonical[root] = c
			next++
		}
		labels[i] = c
	}
	return labels, next - 1
}

// ExtractObjects labels the foreground mask, drops candidates smaller
// than minimumSize, and builds an Object per surviving candidate with
// is_person initially false and last_movement set to now.
func ExtractObjects(foreground []bool, temperatures []float64, width, height, minimumSize int, now time.Time) []*Object {
	labels, count := labelComponents(foreground, width, height)
	if count == 0 {
		return nil
	}
	points := make([][]PointTemperature, count+1)
	for i := 0; i < width*height; i++ {
		l := labels[i]
		if l == 0 {
			continue
		}
		x := i % width
		y := i / width
		points[l] = append(points[l], PointTemperature{
			Point:       Point{X: uint32(x), Y: uint32(y)},
			Temperature: float32(temperatures[i]),
		})
	}

	var objects []*Object
	for l := 1; l <= count; l++ {
		pts := points[l]
		if len(pts) < minimumSize {
			continue
		}
		objects = append(objects, &Object{
			Points:       pts,
			Hu:           shapeDescriptor(pts),
			LastMovement: now,
			IsPerson:     false,
		})
	}
	return objects
}
