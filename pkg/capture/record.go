// Package capture records raw display traffic into CBOR files.
package capture

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Direction of captured bytes.
type Direction uint8

const (
	// DirectionIn is traffic from the display.
	DirectionIn Direction = 0
	// DirectionOut is traffic to the display.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Record is a chunk of traffic in one direction.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Session   string    `cbor:"2,keyasint"`
	Direction Direction `cbor:"3,keyasint"`
	Data      []byte    `cbor:"4,keyasint"`
}

var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(err)
	}
}

// Recorder writes Records to a stream.
// It is safe for concurrent use.
type Recorder struct {
	session string
	w       io.Writer
	enc     *cbor.Encoder
	lock    sync.Mutex
	closed  bool
}

// NewRecorder creates a Recorder with a new session id.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		session: uuid.NewString(),
		w:       w,
		enc:     encMode.NewEncoder(w),
	}
}

// Create creates or appends to a capture file.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return NewRecorder(f), nil
}

// Session returns the session id stamped on every Record.
func (r *Recorder) Session() string {
	return r.session
}

// Record writes one record. Empty data is skipped.
func (r *Recorder) Record(dir Direction, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return os.ErrClosed
	}
	return r.enc.Encode(&Record{
		Timestamp: time.Now(),
		Session:   r.session,
		Direction: dir,
		Data:      data,
	})
}

// Close closes the underlying writer if it's an io.Closer.
func (r *Recorder) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if closer, ok := r.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadAll decodes all records from a capture stream.
func ReadAll(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, err
		}
		records = append(records, rec)
	}
}
