// Package env sets up the runtime of a lidar daemon from flags and
// environment variables.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/msgs"
	"github.com/robotalks/lidar.go/pkg/lidar/serial"
)

// Config provides options to run a lidar.
type Config struct {
	Info msgs.SensorInfo

	// Device is the serial port, e.g. /dev/ttyUSB0.
	Device string
	Port   serial.PortOptions

	// MQTTBrokerURL specifies the MQTT broker to publish scans.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// WebsocketAddr is the listen address for websocket clients.
	WebsocketAddr string

	BufferSize int
	// MinCount drops revolutions with fewer measurements.
	MinCount int
}

var defaultConfig = Config{
	Info:          msgs.SensorInfo{Model: "xv11"},
	Device:        "/dev/ttyUSB0",
	Port:          serial.PortOptions{BaudRate: serial.DefaultBaudRate},
	MQTTBrokerURL: "mqtt://localhost:1883/",
	BufferSize:    lidar.DefaultBufferSize,
	MinCount:      lidar.AngularSectors / 4,
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
	if defaultConfig.Info.ID == "" {
		defaultConfig.Info.ID = MachineID()
	}
}

func loadEnv(c *Config, getenv func(string) string) {
	if val := getenv("LIDAR_DEVICE"); val != "" {
		c.Device = val
	}
	if val := getenv("LIDAR_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			c.Port.BaudRate = baud
		}
	}
	if val := getenv("LIDAR_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv("LIDAR_WS_ADDR"); val != "" {
		c.WebsocketAddr = val
	}
	if val := getenv("LIDAR_ID"); val != "" {
		c.Info.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.ID, "id", defaultConfig.Info.ID, "Sensor ID")
	flag.StringVar(&defaultConfig.Info.Model, "model", defaultConfig.Info.Model, "Sensor model")
	flag.StringVar(&defaultConfig.Device, "dev", defaultConfig.Device, "Serial device")
	flag.IntVar(&defaultConfig.Port.BaudRate, "baud", defaultConfig.Port.BaudRate, "Serial baud rate")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address, empty to disable")
	flag.IntVar(&defaultConfig.BufferSize, "buffer", defaultConfig.BufferSize, "Frame buffer size in bytes")
	flag.IntVar(&defaultConfig.MinCount, "min-count", defaultConfig.MinCount, "Least measurements to report a revolution")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Info.ID == "" {
		return fmt.Errorf("sensor ID must be specified")
	}
	if c.Device == "" {
		return fmt.Errorf("serial device must be specified")
	}
	if c.MQTTBrokerURL == "" && c.WebsocketAddr == "" {
		return fmt.Errorf("at least one of MQTT broker or websocket address is required")
	}
	if _, err := c.Port.Normalize(); err != nil {
		return err
	}
	return nil
}
