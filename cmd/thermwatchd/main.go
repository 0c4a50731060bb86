// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermwatchd is the occupancy-sensing daemon: it wires the sensor
// driver to the capture loop, fans frames out to the renderer, the
// background-model tracker, and an optional recorder, and publishes
// occupancy state to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/maruel/interrupt"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/tinkersloth/thermwatch/internal/broadcast"
	"github.com/tinkersloth/thermwatch/internal/capture"
	"github.com/tinkersloth/thermwatch/internal/config"
	"github.com/tinkersloth/thermwatch/internal/occupancy"
	"github.com/tinkersloth/thermwatch/internal/publish"
	"github.com/tinkersloth/thermwatch/internal/recorder"
	"github.com/tinkersloth/thermwatch/internal/render"
	"github.com/tinkersloth/thermwatch/internal/sensor"
	"github.com/tinkersloth/thermwatch/internal/videostream"
)

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	configPath := flag.String("config", "", "path to JSON config file")
	useFake := flag.Bool("fake", false, "use a synthetic sensor instead of I2C hardware")
	i2cName := flag.String("i2c", "", "I²C bus to use")
	addr := flag.Uint("addr", 0x33, "sensor I2C address")
	width := flag.Int("width", 32, "sensor grid width")
	height := flag.Int("height", 24, "sensor grid height")
	fps := flag.Uint("fps", 8, "requested sensor frame rate")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = c
	}

	drv, err := openDriver(*useFake, *i2cName, uint16(*addr), *width, *height, uint8(*fps))
	if err != nil {
		return err
	}
	defer drv.Close()

	deviceUID := cfg.MQTT.DeviceUID
	if deviceUID == "" {
		deviceUID = publish.DeviceUID(fmt.Sprintf("thermwatch-%d", os.Getpid()))
	}

	var publisher *publish.Publisher
	if cfg.MQTT.Broker != "" {
		publisher, err = connectMQTT(cfg, deviceUID)
		if err != nil {
			return err
		}
		publisher.SetOnline(true)
		defer publisher.SetOnline(false)
	}

	frameHub := broadcast.NewHub[capture.Frame](broadcast.NewCountNode())
	loop := capture.NewLoop(drv, cfg.Orientation, frameHub)

	renderer, err := render.NewRenderer(cfg.Render, broadcast.NewCountNode())
	if err != nil {
		return err
	}
	pool := render.NewPool(2)

	tracker := occupancy.NewTracker(drv.Width(), drv.Height(), cfg.Tracker)

	var rec *recorder.Writer
	if cfg.RecordPath != "" {
		rec, err = recorder.Create(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer rec.Close()
	}

	go runFrameConsumers(loop.Subscribe(), renderer, pool, tracker, rec)
	if publisher != nil {
		go publishOccupancy(tracker, publisher)
		go publishAmbient(loop.Subscribe(), publisher)
	}

	mux := http.NewServeMux()
	mux.Handle("/stream.mjpeg", videostream.NewMJPEGHandler(renderer.Hub(), 0))
	mux.Handle("/stream.raw", videostream.NewRawWebSocketHandler(frameHub).Handler())
	addrStr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Printf("thermwatchd: listening on %s", addrStr)
	go http.ListenAndServe(addrStr, videostream.WithLogging(mux))

	go loop.Run(context.Background())

	if err := watchBinary(); err != nil {
		log.Printf("thermwatchd: watching executable: %s", err)
	}
	// Shutdown closes the frame hub; closing the renderer's own fan-out
	// then unblocks the stream subscribers so every downstream consumer
	// observes end-of-stream and exits.
	loop.Shutdown()
	renderer.Hub().Close()
	return nil
}

// openDriver constructs either the synthetic or real sensor backend.
func openDriver(fake bool, i2cName string, addr uint16, w, h int, fps uint8) (sensor.Driver, error) {
	if fake {
		d := sensor.NewFake(w, h, time.Now().UnixNano())
		if err := d.SetFrameRate(fps); err != nil {
			return nil, err
		}
		return d, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(i2cName)
	if err != nil {
		return nil, err
	}
	d := sensor.NewI2CDriver(bus, addr, w, h)
	if err := d.SetFrameRate(fps); err != nil {
		return nil, err
	}
	return d, nil
}

// connectMQTT builds and connects the paho client, registering the
// status topic as a retained last-will before dialing so an
// ungraceful exit is observable.
func connectMQTT(cfg config.Config, deviceUID string) (*publish.Publisher, error) {
	statusTopic := publish.StatusTopic(cfg.MQTT.BaseTopic, deviceUID)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID("thermwatch-" + deviceUID)
	opts.SetAutoReconnect(true)
	opts.SetWill(statusTopic, "offline", 1, true)
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("thermwatchd: connecting to %s: %w", cfg.MQTT.Broker, err)
	}
	return publish.NewPublisher(client, cfg.MQTT.BaseTopic, deviceUID), nil
}

// runFrameConsumers drains a frame subscription and drives the
// always-on occupancy tracker plus the presence-gated renderer and the
// optional recorder.
func runFrameConsumers(sub *broadcast.Subscriber[capture.Frame], r *render.Renderer, pool *render.Pool, tracker *occupancy.Tracker, rec *recorder.Writer) {
	defer sub.Release()

	var last time.Time
	for {
		frame, ok := sub.Next()
		if !ok {
			return
		}
		w, h := frame.Dimensions()
		samples := toFloat64(frame.Samples())

		// The tracker classifies against the background model before
		// folding this frame's own samples into it.
		tracker.Update(samples, frame.CapturedAt())

		if rec != nil {
			var delay time.Duration
			if !last.IsZero() {
				delay = frame.CapturedAt().Sub(last)
			}
			last = frame.CapturedAt()
			if err := rec.Write(recorder.Record{
				Width:       uint32(w),
				Height:      uint32(h),
				Values:      frame.Samples(),
				Unit:        recorder.Celsius,
				Temperature: frame.AmbientC(),
				Delay:       delay,
			}); err != nil {
				log.Printf("thermwatchd: recording frame: %s", err)
			}
		}

		if r.Hub().Ready() {
			pool.Dispatch(context.Background(), func() {
				r.Render(samples, w, h)
			})
		}
	}
}

// publishOccupancy watches the tracker's presence count and republishes
// the derived occupied/count topics whenever it changes.
func publishOccupancy(tracker *occupancy.Tracker, p *publish.Publisher) {
	watch := tracker.Watch()
	gen := uint64(0)
	for {
		count, nextGen := watch.Next(gen)
		gen = nextGen
		p.SetOccupancyCount(count)
		p.SetOccupied(count > 0)
	}
}

// publishAmbient republishes the sensor's ambient temperature, rounded
// to a tenth of a degree so sensor noise does not defeat the
// publisher's value-equality debounce.
func publishAmbient(sub *broadcast.Subscriber[capture.Frame], p *publish.Publisher) {
	defer sub.Release()
	for {
		frame, ok := sub.Next()
		if !ok {
			return
		}
		rounded := float64(int(frame.AmbientC()*10+0.5)) / 10
		p.SetAmbient(rounded)
	}
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermwatchd: %s.\n", err)
		os.Exit(1)
	}
}
