// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package occupancy

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Object is an extracted foreground region, tracked across frames by
// shape correspondence.
type Object struct {
	Points       []PointTemperature
	Hu           HuMoments
	LastMovement time.Time
	IsPerson     bool
}

// TemperatureStats returns the unweighted mean and variance of the
// object's point temperatures.
func (o *Object) TemperatureStats() (mean, variance float64) {
	temps := make([]float64, len(o.Points))
	for i, p := range o.Points {
		temps[i] = float64(p.Temperature)
	}
	return stat.MeanVariance(temps, nil)
}

// Center is the midpoint of the axis-aligned bounding box of the
// object's pixels.
func (o *Object) Center() (x, y float64) {
	minX, minY := float64(o.Points[0].X), float64(o.Points[0].Y)
	maxX, maxY := minX, minY
	for _, p := range o.Points[1:] {
		fx, fy := float64(p.X), float64(p.Y)
		if fx < minX {
			minX = fx
		}
		if fx > maxX {
			maxX = fx
		}
		if fy < minY {
			minY = fy
		}
		if fy > maxY {
			maxY = fy
		}
	}
	return (minX + maxX) / 2, (minY + maxY) / 2
}

func squaredCenterDistance(a, b *Object) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	dx, dy := ax-bx, ay-by
	return dx*dx + dy*dy
}

// overlapCoefficient is |a.pixels ∩ b.pixels| / min(|a|, |b|).
func overlapCoefficient(a, b *Object) float64 {
	set := make(map[Point]struct{}, len(a.Points))
	for _, p := range a.Points {
		set[p.Point] = struct{}{}
	}
	intersection := 0
	for _, p := range b.Points {
		if _, ok := set[p.Point]; ok {
			intersection++
		}
	}
	denom := len(a.Points)
	if len(b.Points) < denom {
		denom = len(b.Points)
	}
	if denom == 0 {
		return 0
	}
	return float64(intersection) / float64(denom)
}

// shapeIndex is a nearest-neighbor index over Hu-moment vectors. A
// frame only ever holds a few dozen objects, so a linear scan is
// faster in practice than maintaining a spatial index.
type shapeIndex struct {
	objects []*Object
}

func newShapeIndex(objects []*Object) *shapeIndex {
	return &shapeIndex{objects: objects}
}

// popNearest removes and returns the object nearest to hu, or nil if
// the index is empty.
func (s *shapeIndex) popNearest(hu HuMoments) *Object {
	if len(s.objects) == 0 {
		return nil
	}
	best := 0
	bestDist := hu.squaredDistance(s.objects[0].Hu)
	for i := 1; i < len(s.objects); i++ {
		d := hu.squaredDistance(s.objects[i].Hu)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	obj := s.objects[best]
	s.objects = append(s.objects[:best], s.objects[best+1:]...)
	return obj
}

func (s *shapeIndex) reinsert(o *Object) {
	s.objects = append(s.objects, o)
}

// correlate matches each new object against the old-frame shapeIndex,
// mutating new objects in place. A new object with no
// correlation (including one too different in shape to match) keeps
// IsPerson at its constructed default of false: a first sighting alone
// never proves a person, and a pixel model still warming up reports
// its whole frame as foreground, so treating every unmatched object as
// a person would freeze those pixels before the background model ever
// gets a chance to learn them. Only a correlated pair whose center and
// overlap show it has moved is marked a person; a correlated pair that
// hasn't moved inherits the old object's LastMovement/IsPerson.
func correlate(oldObjects []*Object, newObjects []*Object, s TrackerSettings) {
	index := newShapeIndex(oldObjects)
	for _, n := range newObjects {
		old := index.popNearest(n.Hu)
		if old == nil {
			continue
		}
		if n.Hu.squaredDistance(old.Hu) > s.MaximumMovement {
			index.reinsert(old)
			continue
		}
		centerDiff := squaredCenterDistance(old, n)
		overlap := overlapCoefficient(old, n)
		if centerDiff < s.CenterCloseness && overlap >= s.OverlapThreshold {
			n.LastMovement = old.LastMovement
			n.IsPerson = old.IsPerson
		} else {
			// n.LastMovement is already now, set by ExtractObjects.
			n.IsPerson = true
		}
	}
}

// Tracker owns the BackgroundModel and the previous frame's Objects
// exclusively; nothing outside this package reads either directly.
// Snapshot-style access, if ever needed, must be an explicit copy
// published separately.
type Tracker struct {
	settings TrackerSettings
	model    *BackgroundModel
	width    int
	height   int
	objects  []*Object
	count    int
	watch    *CountWatch
}

// NewTracker allocates a tracker for a width×height grid.
func NewTracker(width, height int, s TrackerSettings) *Tracker {
	return &Tracker{
		settings: s,
		model:    NewBackgroundModel(width, height, s.GMM),
		width:    width,
		height:   height,
		watch:    NewCountWatch(),
	}
}

// Count returns the occupancy count as of the most recent Update.
func (t *Tracker) Count() int { return t.count }

// Watch returns the watch-style channel publishing the occupancy
// count: consumers see only the latest value and are woken on change.
func (t *Tracker) Watch() *CountWatch { return t.watch }

// Update folds one frame's temperature samples into the tracker.
// The ordering is load-bearing: classify against the current
// background, build and correlate new objects, apply the resulting
// freeze mask, and only then update the background model. Updating
// first would let a person be absorbed into the background on the very
// frame they were first detected.
func (t *Tracker) Update(samples []float64, now time.Time) {
	foreground := t.model.Classify(samples, t.settings.BackgroundConfidenceThreshold)
	newObjects := ExtractObjects(foreground, samples, t.width, t.height, t.settings.MinimumSize, now)

	correlate(t.objects, newObjects, t.settings)

	var frozen []int
	for _, obj := range newObjects {
		if !obj.IsPerson {
			continue
		}
		if now.Sub(obj.LastMovement) > t.settings.StationaryTimeout {
			obj.IsPerson = false
			continue
		}
		for _, p := range obj.Points {
			frozen = append(frozen, int(p.Y)*t.width+int(p.X))
		}
	}
	t.model.SetFrozen(frozen)

	t.model.Update(samples)
	t.objects = newObjects

	count := 0
	for _, obj := range t.objects {
		if obj.IsPerson {
			count++
		}
	}
	t.count = count
	t.watch.set(count)
}

// Objects returns the current frame's tracked objects. Callers must not
// mutate the returned slice or its elements.
func (t *Tracker) Objects() []*Object { return t.objects }
