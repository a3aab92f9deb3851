package lidar

import (
	"context"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/glog"
)

// Scan is one revolution of measurements indexed by degree.
// A zero distance means no measurement.
type Scan struct {
	Revolution uint32
	Time       time.Time
	RPM        float64
	Ranges     [AngularSectors]uint16
	Count      int
}

// Points projects measured ranges into 2D points in millimeters,
// with degree 0 along the X axis.
func (s *Scan) Points() []r2.Point {
	pts := make([]r2.Point, 0, s.Count)
	for deg, dist := range s.Ranges {
		if dist == 0 {
			continue
		}
		rad := float64(deg) * math.Pi / 180
		d := float64(dist)
		pts = append(pts, r2.Point{X: d * math.Cos(rad), Y: d * math.Sin(rad)})
	}
	return pts
}

// Bounds returns the bounding rectangle of Points.
func (s *Scan) Bounds() r2.Rect {
	return r2.RectFromPoints(s.Points()...)
}

// ScanHandler is called when a revolution completes.
type ScanHandler interface {
	HandleScan(context.Context, *Scan)
}

// HandleScanFunc is func type of ScanHandler.
type HandleScanFunc func(context.Context, *Scan)

// HandleScan implements ScanHandler.
func (f HandleScanFunc) HandleScan(ctx context.Context, s *Scan) {
	f(ctx, s)
}

// ScanAssembler is a MeasurementSink grouping measurements into revolutions.
// A revolution completes when the angular index wraps around.
type ScanAssembler struct {
	Handler ScanHandler
	// MinCount is the least number of measurements to report a revolution.
	MinCount int

	ctx     context.Context
	current *Scan
	last    int
	rpm     float64
	invalid [AngularSectors]bool
	rev     uint32
	size    int
	now     func() time.Time
}

// NewScanAssembler creates a ScanAssembler.
func NewScanAssembler(h ScanHandler) *ScanAssembler {
	return &ScanAssembler{
		Handler: h,
		ctx:     context.Background(),
		last:    -1,
		now:     time.Now,
	}
}

// WithContext sets the context passed to Handler.
func (a *ScanAssembler) WithContext(ctx context.Context) *ScanAssembler {
	a.ctx = ctx
	return a
}

// HandlePacket implements PacketHandler to track rotation speed and
// the degrees flagged with invalid data, which are left unmeasured.
func (a *ScanAssembler) HandlePacket(pkt *Packet) {
	a.rpm = pkt.RPM()
	for k := 0; k < SamplesPerPacket; k++ {
		if deg := pkt.AngularIndex(k); deg < AngularSectors {
			a.invalid[deg] = pkt.Sample(k).InvalidData
		}
	}
}

// AddMeasurement implements MeasurementSink.
func (a *ScanAssembler) AddMeasurement(index, distance uint16) {
	a.size++
	if int(index) <= a.last {
		a.Flush()
	}
	if a.current == nil {
		a.current = &Scan{Revolution: a.rev, Time: a.now()}
	}
	a.last = int(index)
	if index < AngularSectors && distance > 0 && !a.invalid[index] {
		a.current.Ranges[index] = distance
		a.current.Count++
	}
	a.current.RPM = a.rpm
}

// Size implements MeasurementSink.
func (a *ScanAssembler) Size() int {
	return a.size
}

// Flush completes the current revolution.
func (a *ScanAssembler) Flush() {
	s := a.current
	a.current, a.last = nil, -1
	if s == nil {
		return
	}
	a.rev++
	if s.Count < a.MinCount {
		glog.V(2).Infof("drop revolution %d: %d measurements", s.Revolution, s.Count)
		return
	}
	glog.V(2).Infof("revolution %d: %d measurements, %.1f RPM", s.Revolution, s.Count, s.RPM)
	if h := a.Handler; h != nil {
		h.HandleScan(a.ctx, s)
	}
}

// ScanHandlers fans a scan out to multiple handlers in order.
type ScanHandlers []ScanHandler

// HandleScan implements ScanHandler.
func (h ScanHandlers) HandleScan(ctx context.Context, s *Scan) {
	for _, handler := range h {
		handler.HandleScan(ctx, s)
	}
}
