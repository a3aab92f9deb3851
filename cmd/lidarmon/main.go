package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/msgs"
	"github.com/robotalks/lidar.go/pkg/lidar/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	points  bool
)

func init() {
	if val := os.Getenv("LIDAR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&points, "points", points, "Print projected points of each scan.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exit(err)
	}
	q.Sub("lidar/+/meta", func(topic string, payload []byte) {
		if len(payload) == 0 {
			glog.Infof("%s: offline", strings.TrimSuffix(topic, "/meta"))
			return
		}
		info, err := msgs.DecodeMeta(payload)
		if err != nil {
			glog.Warningf("%s: bad meta: %v", topic, err)
			return
		}
		glog.Infof("%s: online model=%s device=%s", info.Name(), info.Model, info.Device)
	})
	q.Sub("lidar/+/scan", func(topic string, payload []byte) {
		s, err := msgs.DecodeScan(payload)
		if err != nil {
			glog.Warningf("%s: bad scan: %v", topic, err)
			return
		}
		printScan(strings.TrimSuffix(topic, "/scan"), s)
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exit(token.Error())
	}
	defer q.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}

func printScan(name string, s *lidar.Scan) {
	nearest, nearestDeg := uint16(0), -1
	for deg, dist := range s.Ranges {
		if dist != 0 && (nearestDeg < 0 || dist < nearest) {
			nearest, nearestDeg = dist, deg
		}
	}
	glog.Infof("%s: rev=%d rpm=%.1f count=%d nearest=%dmm@%d°", name, s.Revolution, s.RPM, s.Count, nearest, nearestDeg)
	if points {
		b := s.Bounds()
		glog.Infof("%s: bounds x=[%.0f, %.0f] y=[%.0f, %.0f]", name, b.X.Lo, b.X.Hi, b.Y.Lo, b.Y.Hi)
		for _, pt := range s.Points() {
			glog.Infof("  %.0f,%.0f", pt.X, pt.Y)
		}
	}
}
