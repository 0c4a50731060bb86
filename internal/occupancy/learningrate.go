// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package occupancy

// learningRate implements the warm-up state machine: while few samples
// have been seen, alpha is 1/n so a brand new model converges fast;
// once 1/n drops to the target steady-state rate, it switches to the
// constant target permanently.
type learningRate struct {
	target  float64
	trained bool
	count   uint64
}

func newLearningRate(target float64) *learningRate {
	return &learningRate{target: target, count: 1}
}

// current returns the alpha to use for the present frame.
func (l *learningRate) current() float64 {
	if l.trained {
		return l.target
	}
	return 1.0 / float64(l.count)
}

// increment advances the sample counter, called once per frame after
// the model update.
func (l *learningRate) increment() {
	if l.trained {
		return
	}
	l.count++
	if 1.0/float64(l.count) <= l.target {
		l.trained = true
	}
}
