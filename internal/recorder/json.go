// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package recorder

import (
	"encoding/json"
	"fmt"
	"time"
)

// recordJSON is the textual encoding of a Record: the same field names
// as the binary form, carried in a map. Unknown keys are ignored on
// decode.
type recordJSON struct {
	Width       uint32             `json:"width"`
	Height      uint32             `json:"height"`
	Values      []float32          `json:"values"`
	Temperature map[string]float32 `json:"temperature"`
	Delay       delayJSON          `json:"delay"`
}

type delayJSON struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

// MarshalJSON encodes the record with its temperature as a one-entry
// map keyed "celsius" or "fahrenheit".
func (r Record) MarshalJSON() ([]byte, error) {
	key := "celsius"
	if r.Unit == Fahrenheit {
		key = "fahrenheit"
	}
	return json.Marshal(recordJSON{
		Width:       r.Width,
		Height:      r.Height,
		Values:      r.Values,
		Temperature: map[string]float32{key: r.Temperature},
		Delay: delayJSON{
			Secs:  uint64(r.Delay / time.Second),
			Nanos: uint32(r.Delay % time.Second),
		},
	})
}

// UnmarshalJSON decodes the textual form, ignoring unknown keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	var j recordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("recorder: decoding record: %w", err)
	}
	r.Width = j.Width
	r.Height = j.Height
	r.Values = j.Values
	r.Delay = time.Duration(j.Delay.Secs)*time.Second + time.Duration(j.Delay.Nanos)
	if v, ok := j.Temperature["fahrenheit"]; ok {
		r.Unit = Fahrenheit
		r.Temperature = v
	} else if v, ok := j.Temperature["celsius"]; ok {
		r.Unit = Celsius
		r.Temperature = v
	}
	if r.Width != 0 && r.Height != 0 && uint32(len(r.Values)) != r.Width*r.Height {
		return fmt.Errorf("recorder: values length %d does not match %dx%d", len(r.Values), r.Width, r.Height)
	}
	return nil
}
