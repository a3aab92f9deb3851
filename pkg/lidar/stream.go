package lidar

import (
	"context"
	"io"
	"os"
)

// DefaultChunkSize is the default size of a single read.
const DefaultChunkSize = 256

// Stream reads bytes from a Reader and runs them through a Parser.
type Stream struct {
	Reader      io.Reader
	Parser      *Parser
	ChunkSize   int
	ReadTimeout bool // set to true if Reader already supports timeout with Read

	source ChunkSource
}

// NewStream creates a Stream delivering measurements to sink.
func NewStream(r io.Reader, sink MeasurementSink, opts ...Option) *Stream {
	s := &Stream{Reader: r, ChunkSize: DefaultChunkSize}
	s.Parser = NewParser(&s.source, sink, opts...)
	return s
}

// Run reads and parses until the context is done or the reader fails.
// Unless ReadTimeout is set, a Read pending on cancellation keeps its
// goroutine blocked until the caller closes Reader.
func (s *Stream) Run(ctx context.Context) error {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	if s.ReadTimeout {
		buf := make([]byte, size)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := s.Reader.Read(buf)
				if n > 0 {
					s.parse(buf[:n])
				}
				if err != nil && !os.IsTimeout(err) {
					return err
				}
			}
		}
	}

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, size, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			s.parse(chunk)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readLoop exits on a read error, closing Reader is the way to stop it.
func (s *Stream) readLoop(ctx context.Context, size int, chunkCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, size)
		n, err := s.Reader.Read(buf)
		if n > 0 {
			select {
			case chunkCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (s *Stream) parse(chunk []byte) int {
	s.source.Feed(chunk)
	return s.Parser.Parse()
}
