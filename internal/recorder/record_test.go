// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package recorder

import (
	"encoding/json"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord() Record {
	return Record{
		Width:       3,
		Height:      2,
		Values:      []float32{21.5, 22.0, 22.5, 23.0, float32(math.Pi), -0.0},
		Unit:        Celsius,
		Temperature: 24.25,
		Delay:       125 * time.Millisecond,
	}
}

func assertRecordsEqual(t *testing.T, want, got Record) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("dimensions: got %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if got.Unit != want.Unit {
		t.Fatalf("unit: got %d, want %d", got.Unit, want.Unit)
	}
	if math.Float32bits(got.Temperature) != math.Float32bits(want.Temperature) {
		t.Fatalf("temperature: got %g, want %g", got.Temperature, want.Temperature)
	}
	if got.Delay != want.Delay {
		t.Fatalf("delay: got %s, want %s", got.Delay, want.Delay)
	}
	if len(got.Values) != len(want.Values) {
		t.Fatalf("values length: got %d, want %d", len(got.Values), len(want.Values))
	}
	for i := range want.Values {
		if math.Float32bits(got.Values[i]) != math.Float32bits(want.Values[i]) {
			t.Fatalf("values[%d]: got bits %08x, want %08x", i, math.Float32bits(got.Values[i]), math.Float32bits(want.Values[i]))
		}
	}
}

func TestRecordMarshalRoundTrip(t *testing.T) {
	want := sampleRecord()
	got, err := unmarshal(marshal(want))
	if err != nil {
		t.Fatal(err)
	}
	assertRecordsEqual(t, want, got)
}

func TestRecordMarshalRoundTripFahrenheit(t *testing.T) {
	want := sampleRecord()
	want.Unit = Fahrenheit
	want.Temperature = 75.65
	got, err := unmarshal(marshal(want))
	if err != nil {
		t.Fatal(err)
	}
	assertRecordsEqual(t, want, got)
}

func TestUnmarshalRejectsMismatchedDimensions(t *testing.T) {
	r := sampleRecord()
	r.Width = 4 // 4*2 != len(Values)
	if _, err := unmarshal(marshal(r)); err == nil {
		t.Fatal("expected an error for a record whose values length does not match width*height")
	}
}

func TestWriterReaderSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.rec")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	records := []Record{sampleRecord(), sampleRecord(), sampleRecord()}
	records[1].Temperature = 30
	records[2].Delay = time.Second + 500*time.Nanosecond
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %s", i, err)
		}
		assertRecordsEqual(t, want, got)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after the last record, got %v", err)
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	want := sampleRecord()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	assertRecordsEqual(t, want, got)
}

func TestRecordJSONIgnoresUnknownKeys(t *testing.T) {
	data := []byte(`{
		"width": 2, "height": 1,
		"values": [20.0, 21.0],
		"temperature": {"fahrenheit": 70.5},
		"delay": {"secs": 0, "nanos": 100000000},
		"comment": "not part of the format",
		"extra": 42
	}`)
	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Unit != Fahrenheit || got.Temperature != 70.5 {
		t.Fatalf("temperature union decoded wrong: unit=%d value=%g", got.Unit, got.Temperature)
	}
	if got.Delay != 100*time.Millisecond {
		t.Fatalf("delay: got %s, want 100ms", got.Delay)
	}
}
