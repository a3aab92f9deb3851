package lidar

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestInput struct {
	bytes []byte
	want  []Measurement
}

func parserInput() *parserTestInput {
	return &parserTestInput{}
}

func (in *parserTestInput) trash(b ...byte) *parserTestInput {
	in.bytes = append(in.bytes, b...)
	return in
}

// valid appends a valid packet and expects its measurements.
func (in *parserTestInput) valid(pkt []byte) *parserTestInput {
	in.bytes = append(in.bytes, pkt...)
	m := PacketFrom(pkt).Measurements()
	in.want = append(in.want, m[:]...)
	return in
}

// invalid appends a packet expected to be rejected.
func (in *parserTestInput) invalid(pkt []byte) *parserTestInput {
	return in.trash(pkt...)
}

func measurementsOf(pkts ...[]byte) (m []Measurement) {
	for _, pkt := range pkts {
		ms := PacketFrom(pkt).Measurements()
		m = append(m, ms[:]...)
	}
	return
}

func TestParserEmptyStream(t *testing.T) {
	var sink MeasurementBuffer
	parser := NewParser(NewChunkSource(), &sink)
	require.Zero(t, parser.Parse())
	require.Zero(t, parser.Parse())
	require.Zero(t, sink.Size())
}

func TestParserOneValidPacket(t *testing.T) {
	var sink MeasurementBuffer
	parser := NewParser(NewChunkSource(validPackets[0]), &sink)
	require.Equal(t, 4, parser.Parse())
	require.Equal(t, []Measurement{
		{Index: 0, Distance: 0x0197},
		{Index: 1, Distance: 0x0197},
		{Index: 2, Distance: 0x0198},
		{Index: 3, Distance: 0x0199},
	}, sink.Measurements())
	require.Zero(t, parser.Buffered())
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		input *parserTestInput
	}{
		{
			name:  "two valid packets",
			input: parserInput().valid(validPackets[0]).valid(validPackets[1]),
		},
		{
			name: "all valid packets",
			input: parserInput().valid(validPackets[0]).valid(validPackets[1]).valid(validPackets[2]).
				valid(validPackets[3]).valid(validPackets[4]).valid(validPackets[5]).
				valid(validPackets[6]).valid(validPackets[7]).valid(validPackets[8]),
		},
		{
			name:  "after trash bytes",
			input: parserInput().trash(0xaa, 0xbb, 0xcc, 0xdd).valid(validPackets[0]),
		},
		{
			name: "surrounded by trash bytes",
			input: parserInput().
				trash(1, 2, 3, 4, 5).valid(validPackets[0]).
				trash(1, 2, 3, 4, 5).valid(validPackets[1]).
				trash(0xa0, 2, 0xa0, 4, 5).valid(validPackets[2]).
				trash(1, 2, 3, 4, 5),
		},
		{
			name:  "index too small",
			input: parserInput().invalid(withIndex(validPackets[0], MinIndex-1)),
		},
		{
			name:  "index too large",
			input: parserInput().invalid(withIndex(validPackets[0], MinIndex+90)),
		},
		{
			name:  "incorrect checksum",
			input: parserInput().invalid(withChecksum(validPackets[0], 0xaa, 0xbb)),
		},
		{
			name: "invalid packets between valid ones",
			input: parserInput().
				valid(validPackets[0]).
				invalid(withIndex(validPackets[1], 0x10)).
				valid(validPackets[2]).
				invalid(withChecksum(validPackets[3], 0, 0)).
				valid(validPackets[4]),
		},
		{
			name:  "start bytes in trash",
			input: parserInput().trash(StartByte, StartByte).valid(validPackets[0]).trash(StartByte),
		},
		{
			name:  "truncated packet",
			input: parserInput().invalid(validPackets[0][:10]).valid(validPackets[1]),
		},
		{
			name:  "start byte inside rejected candidate",
			input: parserInput().invalid(validPackets[0][:5]).valid(validPackets[1]).valid(validPackets[2]),
		},
		{
			name:  "trailing partial packet",
			input: parserInput().valid(validPackets[0]).trash(validPackets[1][:21]...),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sink MeasurementBuffer
			parser := NewParser(NewChunkSource(tc.input.bytes), &sink)
			require.Equal(t, len(tc.input.want), parser.Parse())
			if len(tc.input.want) == 0 {
				require.Zero(t, sink.Size())
			} else {
				require.Equal(t, tc.input.want, sink.Measurements())
			}
		})
	}
}

func TestParserResumeAtAnyBoundary(t *testing.T) {
	want := measurementsOf(validPackets[0])
	for split := 1; split < PacketSize; split++ {
		var sink MeasurementBuffer
		src := NewChunkSource(validPackets[0][:split])
		parser := NewParser(src, &sink)
		require.Zerof(t, parser.Parse(), "split %d", split)
		src.Feed(validPackets[0][split:])
		require.Equalf(t, 4, parser.Parse(), "split %d", split)
		require.Equal(t, want, sink.Measurements())
	}
}

func TestParserByteByByte(t *testing.T) {
	var stream []byte
	stream = append(stream, 1, 2, StartByte)
	stream = append(stream, validPackets[0]...)
	stream = append(stream, validPackets[1][:7]...)
	stream = append(stream, validPackets[2]...)
	stream = append(stream, validPackets[3]...)

	var sink MeasurementBuffer
	src := NewChunkSource()
	parser := NewParser(src, &sink)
	var total int
	for _, b := range stream {
		src.Feed([]byte{b})
		total += parser.Parse()
	}
	require.Equal(t, 12, total)
	require.Equal(t, measurementsOf(validPackets[0], validPackets[2], validPackets[3]), sink.Measurements())
}

func TestParserSmallBuffer(t *testing.T) {
	input := parserInput().
		trash(1, 2, 3, 4, 5).valid(validPackets[0]).
		trash(1, 2, 3, 4, 5).valid(validPackets[1]).
		invalid(withChecksum(validPackets[2], 1, 2)).
		valid(validPackets[3])
	var sink MeasurementBuffer
	parser := NewParser(NewChunkSource(input.bytes), &sink, WithBufferSize(PacketSize))
	require.Equal(t, 12, parser.Parse())
	require.Equal(t, input.want, sink.Measurements())
}

func TestParserRandomTrash(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	input := parserInput()
	trash := func() {
		for n := rng.Intn(40); n > 0; n-- {
			b := byte(rng.Intn(256))
			input.trash(b)
			if b == StartByte {
				// never let trash form a plausible packet.
				input.trash(0)
			}
		}
	}
	for round := 0; round < 5; round++ {
		for _, pkt := range validPackets {
			trash()
			input.valid(pkt)
		}
	}
	trash()

	var sink MeasurementBuffer
	src := NewChunkSource()
	parser := NewParser(src, &sink)
	var total int
	for data := input.bytes; len(data) > 0; {
		n := 1 + rng.Intn(64)
		if n > len(data) {
			n = len(data)
		}
		src.Feed(data[:n])
		data = data[n:]
		total += parser.Parse()
	}
	require.Equal(t, 4*5*len(validPackets), total)
	require.Equal(t, input.want, sink.Measurements())
}

func TestParserStats(t *testing.T) {
	input := parserInput().
		trash(1, 2, 3).
		valid(validPackets[0]).
		invalid(withIndex(validPackets[1], 0x10)).
		invalid(withChecksum(validPackets[2], 0, 0)).
		valid(validPackets[3])
	var sink MeasurementBuffer
	parser := NewParser(NewChunkSource(input.bytes), &sink)
	parser.Parse()
	stats := parser.Stats()
	require.Equal(t, 2, stats.Packets)
	require.Equal(t, 8, stats.Measurements)
	require.Equal(t, 1, stats.IndexErrors)
	require.Equal(t, 1, stats.ChecksumErrors)
	require.Equal(t, 3+2*PacketSize, stats.DiscardedBytes)
}

func TestParserPacketHandler(t *testing.T) {
	var rpms []float64
	var sink MeasurementBuffer
	parser := NewParser(NewChunkSource(validPackets[0], validPackets[7]), &sink,
		WithPacketHandler(HandlePacketFunc(func(pkt *Packet) {
			require.Zero(t, sink.Size()%SamplesPerPacket)
			rpms = append(rpms, pkt.RPM())
		})))
	require.Equal(t, 8, parser.Parse())
	require.Len(t, rpms, 2)
	require.InDelta(t, float64(0x4b27)/64, rpms[0], 1e-9)
	require.InDelta(t, float64(0x4b5b)/64, rpms[1], 1e-9)
}

func TestParserReset(t *testing.T) {
	var sink MeasurementBuffer
	src := NewChunkSource(validPackets[0][:15])
	parser := NewParser(src, &sink)
	require.Zero(t, parser.Parse())
	require.Equal(t, 15, parser.Buffered())
	parser.Reset()
	require.Zero(t, parser.Buffered())
	src.Feed(validPackets[0][15:])
	src.Feed(validPackets[1])
	require.Equal(t, 4, parser.Parse())
	require.Equal(t, measurementsOf(validPackets[1]), sink.Measurements())
}

func TestParseStateString(t *testing.T) {
	require.Equal(t, "ScanningPayload", stateScanningPayload.String())
	require.Equal(t, "Unknown", parseState(42).String())
}
