package lidar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIndex indicates the index byte is out of [MinIndex, MaxIndex].
	ErrInvalidIndex = errors.New("invalid index")
	// ErrChecksumMismatch indicates the packet checksum doesn't match.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrIncomplete indicates the packet has less than PacketSize bytes.
	ErrIncomplete = errors.New("incomplete packet")
)

// ChecksumError reports both checksums of a corrupted packet.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expect %04x, got %04x", e.Expected, e.Actual)
}

// Unwrap makes errors.Is(err, ErrChecksumMismatch) work.
func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}
