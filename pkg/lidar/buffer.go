package lidar

// DefaultBufferSize is the default capacity of FrameBuffer.
const DefaultBufferSize = 16 * PacketSize

// FrameBuffer is a bounded byte queue with a scan cursor.
// Bytes are pushed at the tail, read at the cursor and popped from the head.
type FrameBuffer struct {
	ring []byte
	head int
	size int
	scan int // relative to head
}

// NewFrameBuffer creates a FrameBuffer holding at least PacketSize bytes.
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < PacketSize {
		capacity = PacketSize
	}
	return &FrameBuffer{ring: make([]byte, capacity)}
}

// Len returns the number of buffered bytes.
func (b *FrameBuffer) Len() int {
	return b.size
}

// Cap returns the capacity.
func (b *FrameBuffer) Cap() int {
	return len(b.ring)
}

// Full indicates no more bytes can be pushed.
func (b *FrameBuffer) Full() bool {
	return b.size == len(b.ring)
}

// Push appends a byte to the tail. It returns false when the buffer is full
// and the byte is not accepted.
func (b *FrameBuffer) Push(v byte) bool {
	if b.Full() {
		return false
	}
	b.ring[(b.head+b.size)%len(b.ring)] = v
	b.size++
	return true
}

// PopFront removes and returns the oldest byte.
// The scan cursor stays on the same byte it pointed to.
func (b *FrameBuffer) PopFront() byte {
	if b.size == 0 {
		panic("lidar: PopFront on empty FrameBuffer")
	}
	v := b.ring[b.head]
	b.head = (b.head + 1) % len(b.ring)
	b.size--
	if b.scan > 0 {
		b.scan--
	}
	return v
}

// Discard pops n bytes from the head.
func (b *FrameBuffer) Discard(n int) {
	if n > b.size {
		n = b.size
	}
	b.head = (b.head + n) % len(b.ring)
	b.size -= n
	if b.scan -= n; b.scan < 0 {
		b.scan = 0
	}
}

// PeekAt returns the byte at offset from the head.
func (b *FrameBuffer) PeekAt(offset int) byte {
	if offset < 0 || offset >= b.size {
		panic("lidar: PeekAt out of range")
	}
	return b.ring[(b.head+offset)%len(b.ring)]
}

// Next returns the byte at the scan cursor and advances the cursor.
func (b *FrameBuffer) Next() byte {
	v := b.PeekAt(b.scan)
	b.scan++
	return v
}

// ScanPos returns the scan cursor relative to the head.
func (b *FrameBuffer) ScanPos() int {
	return b.scan
}

// ScanExhausted indicates the cursor reached the end of buffered bytes.
func (b *FrameBuffer) ScanExhausted() bool {
	return b.scan >= b.size
}

// Rewind moves the scan cursor back to the head.
func (b *FrameBuffer) Rewind() {
	b.scan = 0
}

// Clear drops all bytes.
func (b *FrameBuffer) Clear() {
	b.head, b.size, b.scan = 0, 0, 0
}

// FillFrom moves bytes from src until the buffer is full or src is empty.
// It returns the number of bytes moved.
func (b *FrameBuffer) FillFrom(src ByteSource) (n int) {
	for !b.Full() && !src.IsEmpty() {
		b.Push(src.NextByte())
		n++
	}
	return
}
