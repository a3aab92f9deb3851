package lidar

// ByteSource supplies raw bytes on demand.
type ByteSource interface {
	// NextByte takes the next byte. It must not be called when IsEmpty.
	NextByte() byte
	// IsEmpty indicates no byte is available right now.
	IsEmpty() bool
}

// MeasurementSink receives decoded measurements.
type MeasurementSink interface {
	AddMeasurement(index, distance uint16)
	// Size returns the number of measurements delivered so far.
	Size() int
}

// PacketHandler is called with every valid packet before its
// measurements are delivered.
type PacketHandler interface {
	HandlePacket(*Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(*Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(pkt *Packet) {
	f(pkt)
}

// ChunkSource is an in-memory ByteSource fed with chunks of bytes.
type ChunkSource struct {
	buf []byte
	pos int
}

// NewChunkSource creates a ChunkSource with initial bytes.
func NewChunkSource(chunks ...[]byte) *ChunkSource {
	s := &ChunkSource{}
	for _, c := range chunks {
		s.Feed(c)
	}
	return s
}

// Feed appends bytes.
func (s *ChunkSource) Feed(p []byte) {
	if s.pos > 0 && s.pos == len(s.buf) {
		s.buf, s.pos = s.buf[:0], 0
	}
	s.buf = append(s.buf, p...)
}

// Len returns the number of bytes not yet taken.
func (s *ChunkSource) Len() int {
	return len(s.buf) - s.pos
}

// NextByte implements ByteSource.
func (s *ChunkSource) NextByte() byte {
	b := s.buf[s.pos]
	s.pos++
	return b
}

// IsEmpty implements ByteSource.
func (s *ChunkSource) IsEmpty() bool {
	return s.pos >= len(s.buf)
}

// MeasurementBuffer is a MeasurementSink collecting measurements in memory.
type MeasurementBuffer struct {
	items []Measurement
}

// AddMeasurement implements MeasurementSink.
func (b *MeasurementBuffer) AddMeasurement(index, distance uint16) {
	b.items = append(b.items, Measurement{Index: index, Distance: distance})
}

// Size implements MeasurementSink.
func (b *MeasurementBuffer) Size() int {
	return len(b.items)
}

// At returns the i-th measurement.
func (b *MeasurementBuffer) At(i int) Measurement {
	return b.items[i]
}

// Measurements returns all collected measurements.
func (b *MeasurementBuffer) Measurements() []Measurement {
	return b.items
}

// Clear drops collected measurements.
func (b *MeasurementBuffer) Clear() {
	b.items = nil
}
