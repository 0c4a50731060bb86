// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package occupancy maintains the per-pixel Gaussian mixture background
// model and the frame-to-frame object tracker that together derive an
// occupancy count from a stream of thermal grids.
package occupancy

import "time"

// GMMParameters configures the per-pixel adaptive Gaussian mixture
// (Zivkovic 2006).
type GMMParameters struct {
	// LearningRate is the steady-state update rate alpha; 0.002 is
	// equivalent to roughly a 500-frame window.
	LearningRate float64
	// MaxComponents bounds how many Gaussians a single pixel model may
	// hold at once.
	MaxComponents int
	// ModelDistanceThreshold is the squared Mahalanobis distance below
	// which a component claims a sample.
	ModelDistanceThreshold float64
	// ComplexityReduction is the constant negative weight pressure
	// applied to every component on every update.
	ComplexityReduction float64
	// BackgroundThreshold is the cumulative-weight cutoff separating
	// background components from foreground ones.
	BackgroundThreshold float64
	// InitialVariance seeds a newly inserted component's variance.
	InitialVariance float64
}

// DefaultGMMParameters returns the parameter set used unless a
// deployment overrides it.
func DefaultGMMParameters() GMMParameters {
	return GMMParameters{
		LearningRate:           0.002,
		MaxComponents:          4,
		ModelDistanceThreshold: 9.0,
		ComplexityReduction:    0.05,
		BackgroundThreshold:    0.01,
		InitialVariance:        10.0,
	}
}

// TrackerSettings configures the object tracker's classification and
// correspondence thresholds.
type TrackerSettings struct {
	GMM GMMParameters

	// BackgroundConfidenceThreshold is the probability below which a
	// pixel is classified foreground.
	BackgroundConfidenceThreshold float64

	// MinimumSize is the smallest pixel count a connected component may
	// have to become a candidate Object.
	MinimumSize int

	// MaximumMovement bounds the squared Euclidean distance between two
	// objects' Hu-moment vectors for them to be considered the same
	// object across frames. Temperature-weighted Hu components are
	// tiny (the mass normalization divides by powers of the summed
	// temperatures), so same-object frame-to-frame drift lands well
	// below 1e-6 while clearly different silhouettes land above it.
	MaximumMovement float64

	// CenterCloseness bounds the squared pixel distance between two
	// correlated objects' bounding-box centers for the pair to be
	// considered stationary.
	CenterCloseness float64

	// OverlapThreshold is the minimum pixel-set overlap coefficient for
	// a correlated pair to be considered stationary.
	OverlapThreshold float64

	// StationaryTimeout is how long an object may remain motionless
	// before it stops being counted as a person.
	StationaryTimeout time.Duration
}

// DefaultTrackerSettings returns the parameter set used unless a
// deployment overrides it.
func DefaultTrackerSettings() TrackerSettings {
	return TrackerSettings{
		GMM:                           DefaultGMMParameters(),
		BackgroundConfidenceThreshold: 0.001,
		MinimumSize:                   1,
		MaximumMovement:               1e-6,
		CenterCloseness:               4.0,
		OverlapThreshold:              0.6,
		StationaryTimeout:             3 * time.Hour,
	}
}
