package nextion

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Transport is the byte stream connected to the display.
type Transport interface {
	// Available returns the number of bytes which can be read without waiting.
	Available() int
	// ReadByte consumes one byte. It returns ErrNoData if Available is 0.
	ReadByte() (byte, error)
	// Write sends bytes to the display.
	Write(p []byte) (int, error)
}

// DefaultBufferSize is the default receive buffer size of a Stream.
const DefaultBufferSize = 1024

// DefaultCloseTimeout bounds the wait for the read loop after Close.
const DefaultCloseTimeout = time.Second

// Stream adapts an io.ReadWriter into a Transport.
// Bytes are collected in the background by Run.
type Stream struct {
	ReadWriter io.ReadWriter
	BufferSize int
	// CloseTimeout bounds how long Run waits for a blocked Read to
	// return once the underlying stream is closed.
	CloseTimeout time.Duration

	lock     sync.Mutex
	buf      []byte
	overruns int
	err      error
}

// NewStream creates a Stream over rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{ReadWriter: rw, BufferSize: DefaultBufferSize, CloseTimeout: DefaultCloseTimeout}
}

// Available implements Transport.
func (s *Stream) Available() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.buf)
}

// ReadByte implements Transport.
func (s *Stream) ReadByte() (byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.buf) == 0 {
		return 0, ErrNoData
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}

// Write implements Transport.
func (s *Stream) Write(p []byte) (int, error) {
	return s.ReadWriter.Write(p)
}

// Overruns returns the number of bytes dropped because the buffer was full.
func (s *Stream) Overruns() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.overruns
}

// Err returns the error which stopped Run, if any.
func (s *Stream) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.err
}

// Close closes the underlying stream if it's an io.Closer.
func (s *Stream) Close() error {
	_, err := s.close()
	return err
}

func (s *Stream) close() (bool, error) {
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return true, closer.Close()
	}
	return false, nil
}

// Run implements Runnable, reading from the underlying stream until
// ctx is done or a read fails. On cancellation the underlying stream is
// closed to unblock Read. A read loop that stays blocked is left behind
// and exits on its next Read.
func (s *Stream) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.readLoop(ctx)
	}()
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	// Most serial ports only unblock Read on Close.
	if closed, _ := s.close(); closed {
		timeout := s.CloseTimeout
		if timeout <= 0 {
			timeout = DefaultCloseTimeout
		}
		select {
		case <-errCh:
		case <-time.After(timeout):
			glog.V(2).Info("stream: read still blocked after close")
		}
	}
	return ctx.Err()
}

func (s *Stream) readLoop(ctx context.Context) error {
	chunk := make([]byte, 64)
	for {
		n, err := s.ReadWriter.Read(chunk)
		if n > 0 {
			s.append(chunk[:n])
		}
		if err != nil {
			s.lock.Lock()
			s.err = err
			s.lock.Unlock()
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (s *Stream) append(p []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	size := s.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	room := size - len(s.buf)
	if room < len(p) {
		if room < 0 {
			room = 0
		}
		s.overruns += len(p) - room
		glog.V(3).Infof("receive buffer full, %d bytes dropped", len(p)-room)
		p = p[:room]
	}
	s.buf = append(s.buf, p...)
}
