package env

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/lidar.go/pkg/framework"
	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/mqtt"
	"github.com/robotalks/lidar.go/pkg/lidar/serial"
	"github.com/robotalks/lidar.go/pkg/lidar/websocket"
)

// Env wires a serial lidar to scan consumers.
type Env struct {
	Config    *Config
	Assembler *lidar.ScanAssembler
	Publisher *mqtt.Publisher
	Websocket *websocket.Server

	// OpenDevice opens Config.Device, replaceable for tests.
	OpenDevice func(*Config) (io.ReadCloser, error)
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Info.Device = c.Device
	e := &Env{Config: c, OpenDevice: openSerial}
	var handlers lidar.ScanHandlers
	if c.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %w", err)
		}
		e.Publisher = pub
		handlers = append(handlers, pub)
	}
	if c.WebsocketAddr != "" {
		e.Websocket = websocket.NewServer()
		handlers = append(handlers, e.Websocket)
	}
	e.Assembler = lidar.NewScanAssembler(handlers)
	e.Assembler.MinCount = c.MinCount
	return e, nil
}

func openSerial(c *Config) (io.ReadCloser, error) {
	return serial.Open(c.Device, c.Port)
}

// Run implements Runnable. It stops when any component fails.
func (e *Env) Run(ctx context.Context) error {
	runner := fx.NewRunner(ctx)
	if e.Publisher != nil {
		runner.Go(fx.NamedRun("mqtt", e.Publisher))
	}
	if e.Websocket != nil {
		runner.Go(fx.NamedRun("websocket", fx.RunFunc(func(ctx context.Context) error {
			return e.Websocket.ListenAndServe(ctx, e.Config.WebsocketAddr)
		})))
	}
	runner.Go(fx.NamedRun("sensor", fx.RunFunc(e.runSensor)))
	return runner.Wait()
}

func (e *Env) runSensor(ctx context.Context) error {
	dev, err := e.OpenDevice(e.Config)
	if err != nil {
		return err
	}
	e.Assembler.WithContext(ctx)
	stream := lidar.NewStream(dev, e.Assembler,
		lidar.WithBufferSize(e.Config.BufferSize),
		lidar.WithPacketHandler(e.Assembler))
	stream.ReadTimeout = true
	defer func() {
		stats := stream.Parser.Stats()
		glog.Infof("parsed %d packets, %d measurements, discarded %d bytes (%d index errors, %d checksum errors)",
			stats.Packets, stats.Measurements, stats.DiscardedBytes, stats.IndexErrors, stats.ChecksumErrors)
	}()
	return fx.RunWithContextCloser(ctx, dev, func() error {
		err := stream.Run(ctx)
		e.Assembler.Flush()
		return err
	})
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		glog.Exit(err)
	}
	return env
}
