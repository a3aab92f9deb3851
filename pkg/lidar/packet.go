package lidar

import "encoding/binary"

// Packet layout constants.
const (
	PacketSize       = 22
	SamplesPerPacket = 4
	AngularSectors   = 360
)

// Special byte values.
const (
	StartByte byte = 0xfa
	MinIndex  byte = 0xa0
	MaxIndex  byte = 0xf9
)

const (
	offsetIndex    = 1
	offsetSpeed    = 2
	offsetData     = 4
	offsetChecksum = 20
	dataGroupSize  = 4

	distanceMask     uint16 = 0x3fff
	flagInvalidData  uint16 = 0x8000
	flagStrengthWarn uint16 = 0x4000
	checksumMask     uint32 = 0x7fff
)

// Measurement is a decoded range at an angular index in [0, 359].
type Measurement struct {
	Index    uint16
	Distance uint16 // millimeters
}

// Sample is the full content of a data group.
type Sample struct {
	Measurement
	InvalidData     bool
	StrengthWarning bool
	Strength        uint16
}

// Packet accumulates the bytes of one candidate packet.
// Field accessors are only meaningful once the packet is Full.
type Packet struct {
	data [PacketSize]byte
	len  int
}

// PacketFrom creates a Packet from raw bytes, at most PacketSize are used.
func PacketFrom(b []byte) *Packet {
	p := &Packet{}
	for _, v := range b {
		if !p.Add(v) {
			break
		}
	}
	return p
}

// Reset empties the packet.
func (p *Packet) Reset() {
	p.len = 0
}

// Add appends a byte at the next position, returns false if the packet is full.
func (p *Packet) Add(b byte) bool {
	if p.len >= PacketSize {
		return false
	}
	p.data[p.len] = b
	p.len++
	return true
}

// Len returns the number of bytes accumulated.
func (p *Packet) Len() int {
	return p.len
}

// Full indicates all PacketSize bytes are accumulated.
func (p *Packet) Full() bool {
	return p.len == PacketSize
}

// Bytes returns the accumulated bytes.
func (p *Packet) Bytes() []byte {
	return p.data[:p.len]
}

// Index returns the raw index byte.
func (p *Packet) Index() byte {
	return p.data[offsetIndex]
}

// Speed returns the raw rotation speed (RPM*64).
func (p *Packet) Speed() uint16 {
	return binary.LittleEndian.Uint16(p.data[offsetSpeed:])
}

// RPM returns the rotation speed in revolutions per minute.
func (p *Packet) RPM() float64 {
	return float64(p.Speed()) / 64
}

// AngularIndex returns the normalized angle of data group k (0..3).
func (p *Packet) AngularIndex(k int) uint16 {
	return uint16(p.Index()-MinIndex)<<2 + uint16(k)
}

// Distance returns the 14-bit distance of data group k (0..3).
func (p *Packet) Distance(k int) uint16 {
	return p.word(offsetData+k*dataGroupSize) & distanceMask
}

// Sample decodes data group k (0..3) including flags and signal strength.
func (p *Packet) Sample(k int) Sample {
	off := offsetData + k*dataGroupSize
	raw := p.word(off)
	return Sample{
		Measurement:     Measurement{Index: p.AngularIndex(k), Distance: raw & distanceMask},
		InvalidData:     raw&flagInvalidData != 0,
		StrengthWarning: raw&flagStrengthWarn != 0,
		Strength:        p.word(off + 2),
	}
}

// Measurements decodes all data groups in ascending order.
func (p *Packet) Measurements() (m [SamplesPerPacket]Measurement) {
	for k := range m {
		m[k] = Measurement{Index: p.AngularIndex(k), Distance: p.Distance(k)}
	}
	return
}

// Checksum returns the checksum carried by the packet.
func (p *Packet) Checksum() uint16 {
	return p.word(offsetChecksum)
}

// ComputeChecksum calculates the checksum over bytes 0-19.
func (p *Packet) ComputeChecksum() uint16 {
	return Checksum(p.data[:offsetChecksum])
}

// Validate checks index range and checksum. The packet is not modified.
func (p *Packet) Validate() error {
	if !p.Full() {
		return ErrIncomplete
	}
	if idx := p.Index(); idx < MinIndex || idx > MaxIndex {
		return ErrInvalidIndex
	}
	if expected, actual := p.ComputeChecksum(), p.Checksum(); expected != actual {
		return &ChecksumError{Expected: expected, Actual: actual}
	}
	return nil
}

func (p *Packet) word(off int) uint16 {
	return binary.LittleEndian.Uint16(p.data[off:])
}

// Checksum calculates the 15-bit checksum of little-endian 16-bit words in b.
// A trailing odd byte is ignored.
func Checksum(b []byte) uint16 {
	var acc uint32
	for i := 0; i+1 < len(b); i += 2 {
		acc = acc<<1 + uint32(binary.LittleEndian.Uint16(b[i:]))
	}
	acc = acc&checksumMask + acc>>15
	return uint16(acc & checksumMask)
}

// EncodePacket builds a valid packet. It's the inverse of decoding
// and used to synthesize streams.
func EncodePacket(index byte, speed uint16, samples [SamplesPerPacket]Sample) []byte {
	b := make([]byte, PacketSize)
	b[0], b[offsetIndex] = StartByte, index
	binary.LittleEndian.PutUint16(b[offsetSpeed:], speed)
	for k, s := range samples {
		raw := s.Distance & distanceMask
		if s.InvalidData {
			raw |= flagInvalidData
		}
		if s.StrengthWarning {
			raw |= flagStrengthWarn
		}
		off := offsetData + k*dataGroupSize
		binary.LittleEndian.PutUint16(b[off:], raw)
		binary.LittleEndian.PutUint16(b[off+2:], s.Strength)
	}
	binary.LittleEndian.PutUint16(b[offsetChecksum:], Checksum(b[:offsetChecksum]))
	return b
}
