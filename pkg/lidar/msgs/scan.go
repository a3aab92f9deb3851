package msgs

import (
	"errors"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/lidar.go/pkg/lidar"
)

// ErrTooManyRanges indicates more ranges than angular sectors.
var ErrTooManyRanges = errors.New("too many ranges")

// Scan is the wire form of lidar.Scan. Ranges are in mm indexed by degree.
type Scan struct {
	Revolution   uint32   `protobuf:"varint,1,opt,name=revolution,proto3" json:"revolution,omitempty"`
	TimeUnixNano int64    `protobuf:"varint,2,opt,name=time_unix_nano,proto3" json:"time_unix_nano,omitempty"`
	Rpm          float32  `protobuf:"fixed32,3,opt,name=rpm,proto3" json:"rpm,omitempty"`
	Ranges       []uint32 `protobuf:"varint,4,rep,packed,name=ranges,proto3" json:"ranges,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Scan) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Scan) Reset() { *m = Scan{} }

// String implements proto.Message.
func (m *Scan) String() string { return proto.CompactTextString(m) }

// ScanFrom converts lidar.Scan into its wire form.
func ScanFrom(s *lidar.Scan) *Scan {
	m := &Scan{
		Revolution: s.Revolution,
		Rpm:        float32(s.RPM),
		Ranges:     make([]uint32, len(s.Ranges)),
	}
	if !s.Time.IsZero() {
		m.TimeUnixNano = s.Time.UnixNano()
	}
	for deg, r := range s.Ranges {
		m.Ranges[deg] = uint32(r)
	}
	return m
}

// ToScan converts the message back into lidar.Scan.
func (m *Scan) ToScan() (*lidar.Scan, error) {
	if len(m.Ranges) > lidar.AngularSectors {
		return nil, ErrTooManyRanges
	}
	s := &lidar.Scan{
		Revolution: m.Revolution,
		RPM:        float64(m.Rpm),
	}
	if m.TimeUnixNano != 0 {
		s.Time = time.Unix(0, m.TimeUnixNano)
	}
	for deg, r := range m.Ranges {
		s.Ranges[deg] = uint16(r)
		if r != 0 {
			s.Count++
		}
	}
	return s, nil
}

// EncodeScan encodes a lidar.Scan.
func EncodeScan(s *lidar.Scan) ([]byte, error) {
	return proto.Marshal(ScanFrom(s))
}

// DecodeScan decodes a lidar.Scan.
func DecodeScan(b []byte) (*lidar.Scan, error) {
	var m Scan
	if err := proto.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m.ToScan()
}
