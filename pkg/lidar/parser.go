package lidar

import (
	"errors"

	"github.com/golang/glog"
)

// Parser extracts measurements from a ByteSource.
// It is re-entrant: each Parse consumes what is available and pauses
// at a byte boundary, the next Parse resumes from there.
type Parser struct {
	Source  ByteSource
	Sink    MeasurementSink
	Handler PacketHandler

	buf    *FrameBuffer
	packet Packet
	state  parseState
	stats  Stats
}

// Stats are the counters of a Parser.
type Stats struct {
	Packets        int // valid packets
	Measurements   int
	DiscardedBytes int // bytes dropped while resynchronizing
	IndexErrors    int
	ChecksumErrors int
}

type parseState int

const (
	stateResetting       parseState = iota // clear packet, rewind to head
	stateScanningStart                     // looking for StartByte
	stateScanningPayload                   // collecting the remaining bytes
	stateValidating                        // packet full, check index/checksum
	stateEmitting                          // deliver measurements
)

var stateNames = [...]string{
	stateResetting:       "Resetting",
	stateScanningStart:   "ScanningStart",
	stateScanningPayload: "ScanningPayload",
	stateValidating:      "Validating",
	stateEmitting:        "Emitting",
}

// String implements fmt.Stringer.
func (s parseState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Option configures a Parser.
type Option func(*Parser)

// WithBufferSize sets the capacity of the frame buffer.
func WithBufferSize(size int) Option {
	return func(p *Parser) {
		p.buf = NewFrameBuffer(size)
	}
}

// WithPacketHandler sets the PacketHandler.
func WithPacketHandler(h PacketHandler) Option {
	return func(p *Parser) {
		p.Handler = h
	}
}

// NewParser creates a Parser.
func NewParser(src ByteSource, sink MeasurementSink, opts ...Option) *Parser {
	p := &Parser{Source: src, Sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.buf == nil {
		p.buf = NewFrameBuffer(DefaultBufferSize)
	}
	return p
}

// Stats returns the counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Buffered returns the number of bytes held in the frame buffer.
func (p *Parser) Buffered() int {
	return p.buf.Len()
}

// Reset drops buffered bytes and the partial packet.
func (p *Parser) Reset() {
	p.buf.Clear()
	p.packet.Reset()
	p.state = stateResetting
}

// Parse processes available bytes and returns the number of measurements
// delivered to Sink during this call.
func (p *Parser) Parse() (count int) {
	p.buf.FillFrom(p.Source)
	for {
		n, more := p.step()
		count += n
		if more {
			continue
		}
		// starving, pull more bytes if the source has any.
		if p.buf.FillFrom(p.Source) == 0 {
			glog.V(4).Infof("parser paused in %s, %d bytes buffered", p.state, p.buf.Len())
			return
		}
	}
}

// step runs one state. It returns false when no byte is available
// to continue.
func (p *Parser) step() (count int, more bool) {
	switch p.state {
	case stateResetting:
		p.packet.Reset()
		p.buf.Rewind()
		p.state = stateScanningStart
	case stateScanningStart:
		if p.buf.ScanExhausted() {
			return 0, false
		}
		b := p.buf.Next()
		if b != StartByte {
			p.buf.PopFront()
			p.stats.DiscardedBytes++
			glog.V(5).Infof("discard %02x", b)
			return 0, true
		}
		p.packet.Add(b)
		p.state = stateScanningPayload
	case stateScanningPayload:
		for !p.packet.Full() {
			if p.buf.ScanExhausted() {
				return 0, false
			}
			p.packet.Add(p.buf.Next())
		}
		p.state = stateValidating
	case stateValidating:
		if err := p.packet.Validate(); err != nil {
			p.rejected(err)
			// drop only the start byte, a start byte inside
			// the rejected candidate is found on the next scan.
			p.buf.PopFront()
			p.stats.DiscardedBytes++
			p.state = stateResetting
			return 0, true
		}
		p.state = stateEmitting
	case stateEmitting:
		count = p.emit()
		p.buf.Discard(PacketSize)
		p.state = stateResetting
	}
	return count, true
}

func (p *Parser) emit() int {
	p.stats.Packets++
	if h := p.Handler; h != nil {
		h.HandlePacket(&p.packet)
	}
	if p.Sink == nil {
		return 0
	}
	for k := 0; k < SamplesPerPacket; k++ {
		p.Sink.AddMeasurement(p.packet.AngularIndex(k), p.packet.Distance(k))
	}
	p.stats.Measurements += SamplesPerPacket
	return SamplesPerPacket
}

func (p *Parser) rejected(err error) {
	switch {
	case errors.Is(err, ErrInvalidIndex):
		p.stats.IndexErrors++
	case errors.Is(err, ErrChecksumMismatch):
		p.stats.ChecksumErrors++
	}
	if glog.V(3) {
		glog.Infof("packet rejected: %v (index %02x)", err, p.packet.Index())
	}
}
