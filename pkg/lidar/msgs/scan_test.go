package msgs

import (
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lidar.go/pkg/lidar"
)

func TestScanCodec(t *testing.T) {
	s := &lidar.Scan{
		Revolution: 42,
		Time:       time.Unix(1600000000, 123456789),
		RPM:        300.5,
	}
	for deg := range s.Ranges {
		if deg%3 != 0 {
			s.Ranges[deg] = uint16(deg * 40)
			s.Count++
		}
	}
	b, err := EncodeScan(s)
	require.NoError(t, err)
	decoded, err := DecodeScan(b)
	require.NoError(t, err)
	require.Equal(t, s.Revolution, decoded.Revolution)
	require.True(t, s.Time.Equal(decoded.Time))
	require.Equal(t, s.RPM, decoded.RPM)
	require.Equal(t, s.Ranges, decoded.Ranges)
	require.Equal(t, s.Count, decoded.Count)
}

func TestDecodeScanSkipsUnknownFields(t *testing.T) {
	b, err := EncodeScan(&lidar.Scan{Revolution: 3})
	require.NoError(t, err)
	// field 9, length-delimited "ext"
	b = append(b, 9<<3|2, 3, 'e', 'x', 't')
	s, err := DecodeScan(b)
	require.NoError(t, err)
	require.Equal(t, uint32(3), s.Revolution)
	require.True(t, s.Time.IsZero())
	require.Zero(t, s.Count)
}

func TestDecodeScanErrors(t *testing.T) {
	b, err := EncodeScan(&lidar.Scan{Revolution: 1})
	require.NoError(t, err)
	_, err = DecodeScan(b[:len(b)-1])
	require.Error(t, err)

	b, err = proto.Marshal(&Scan{Ranges: make([]uint32, lidar.AngularSectors+1)})
	require.NoError(t, err)
	_, err = DecodeScan(b)
	require.Equal(t, ErrTooManyRanges, err)
}

func TestScanMessage(t *testing.T) {
	s := &lidar.Scan{Revolution: 9, RPM: 250}
	s.Ranges[359] = 42
	m := ScanFrom(s)
	require.Len(t, m.Ranges, lidar.AngularSectors)
	require.Equal(t, uint32(42), m.Ranges[359])
	require.Zero(t, m.TimeUnixNano)
	require.Contains(t, m.String(), "revolution:9")

	var decoded Scan
	b, err := proto.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, proto.Unmarshal(b, &decoded))
	require.Equal(t, m.Ranges, decoded.Ranges)
	m.Reset()
	require.Nil(t, m.Ranges)
}

func TestMeta(t *testing.T) {
	info := SensorInfo{ID: "abc", Model: "xv11", Labels: map[string]string{"mount": "front"}}
	require.Equal(t, "lidar/abc/scan", info.ScanTopic())
	require.Equal(t, "lidar/abc/meta", info.MetaTopic())
	b, err := EncodeMeta(info)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc","model":"xv11","labels":{"mount":"front"}}`, string(b))
	decoded, err := DecodeMeta(b)
	require.NoError(t, err)
	require.Equal(t, info, decoded)
}
