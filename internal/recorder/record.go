// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package recorder writes and replays length-delimited frame records:
// each record is a varint byte-length followed by a protobuf-encoded
// message carrying width, height, the sample grid, a temperature tagged
// as Celsius or Fahrenheit, and the inter-frame delay. Record also has a
// per-record JSON encoding (MarshalJSON/UnmarshalJSON) with the same
// field names for debugging with standard tools.
package recorder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// TemperatureUnit selects which of the record's tagged-union
// temperature fields is populated.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

// Record is one recorded frame.
type Record struct {
	Width       uint32
	Height      uint32
	Values      []float32
	Unit        TemperatureUnit
	Temperature float32
	Delay       time.Duration
}

// Field numbers for the hand-encoded message. There is no .proto
// source for this format -- the toolchain that would generate one is
// not run as part of this build -- so messages are framed directly
// with protowire, which is the same low-level encoder protoc-gen-go
// output would call into.
const (
	fieldWidth      = protowire.Number(1)
	fieldHeight     = protowire.Number(2)
	fieldValues     = protowire.Number(3)
	fieldCelsius    = protowire.Number(4)
	fieldFahrenheit = protowire.Number(5)
	fieldDelaySecs  = protowire.Number(6)
	fieldDelayNanos = protowire.Number(7)
)

func marshal(r Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Width))

	b = protowire.AppendTag(b, fieldHeight, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Height))

	var packed []byte
	for _, v := range r.Values {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	b = protowire.AppendTag(b, fieldValues, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	tempField := fieldCelsius
	if r.Unit == Fahrenheit {
		tempField = fieldFahrenheit
	}
	b = protowire.AppendTag(b, tempField, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(r.Temperature))

	secs := r.Delay / time.Second
	nanos := r.Delay % time.Second
	b = protowire.AppendTag(b, fieldDelaySecs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(secs))
	b = protowire.AppendTag(b, fieldDelayNanos, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(nanos))
	return b
}

func unmarshal(data []byte) (Record, error) {
	var r Record
	var secs, nanos uint64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return r, fmt.Errorf("recorder: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldWidth:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad width: %w", protowire.ParseError(n))
			}
			r.Width = uint32(v)
			data = data[n:]
		case fieldHeight:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad height: %w", protowire.ParseError(n))
			}
			r.Height = uint32(v)
			data = data[n:]
		case fieldValues:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad values: %w", protowire.ParseError(n))
			}
			r.Values = make([]float32, 0, len(v)/4)
			for i := 0; i+4 <= len(v); i += 4 {
				bits := binary.LittleEndian.Uint32(v[i:])
				r.Values = append(r.Values, math.Float32frombits(bits))
			}
			data = data[n:]
		case fieldCelsius, fieldFahrenheit:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad temperature: %w", protowire.ParseError(n))
			}
			r.Unit = Celsius
			if num == fieldFahrenheit {
				r.Unit = Fahrenheit
			}
			r.Temperature = math.Float32frombits(v)
			data = data[n:]
		case fieldDelaySecs:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad delay secs: %w", protowire.ParseError(n))
			}
			secs = v
			data = data[n:]
		case fieldDelayNanos:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad delay nanos: %w", protowire.ParseError(n))
			}
			nanos = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return r, fmt.Errorf("recorder: bad field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if r.Width != 0 && r.Height != 0 && uint32(len(r.Values)) != r.Width*r.Height {
		return r, fmt.Errorf("recorder: values length %d does not match %dx%d", len(r.Values), r.Width, r.Height)
	}
	r.Delay = time.Duration(secs)*time.Second + time.Duration(nanos)
	return r, nil
}

// Writer appends Records to a file as length-delimited messages.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Create opens path for writing, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	data := marshal(r)
	var lenBuf []byte
	lenBuf = protowire.AppendVarint(lenBuf, uint64(len(data)))
	if _, err := w.w.Write(lenBuf); err != nil {
		return fmt.Errorf("recorder: writing length prefix: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("recorder: writing record: %w", err)
	}
	return nil
}

// Close flushes buffered writes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("recorder: flushing: %w", err)
	}
	return w.f.Close()
}

// Reader reads Records back from a file written by Writer.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

// Open opens path for sequential replay.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Next reads the next record, returning io.EOF once the file is
// exhausted.
func (r *Reader) Next() (Record, error) {
	length, err := binary.ReadUvarint(r.r)
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("recorder: reading length prefix: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return Record{}, fmt.Errorf("recorder: reading record: %w", err)
	}
	rec, err := unmarshal(buf)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
