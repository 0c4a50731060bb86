// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package main

import "github.com/maruel/interrupt"

// watchBinary has no inotify-equivalent outside Linux in this build; it
// only waits for Ctrl-C.
func watchBinary() error {
	<-interrupt.Channel
	return nil
}
