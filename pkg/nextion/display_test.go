package nextion

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeDisplay is a Transport with scripted byte arrival.
type fakeDisplay struct {
	lock      sync.Mutex
	rx        []byte
	scheduled []arrival
	written   bytes.Buffer
	pending   []byte
	attrs     map[string]string
	replies   map[string][]byte
}

type arrival struct {
	at   time.Time
	data []byte
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		attrs:   make(map[string]string),
		replies: make(map[string][]byte),
	}
}

func (d *fakeDisplay) release() {
	now := time.Now()
	remains := d.scheduled[:0]
	for _, a := range d.scheduled {
		if !now.Before(a.at) {
			d.rx = append(d.rx, a.data...)
		} else {
			remains = append(remains, a)
		}
	}
	d.scheduled = remains
}

func (d *fakeDisplay) Available() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.release()
	return len(d.rx)
}

func (d *fakeDisplay) ReadByte() (byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.release()
	if len(d.rx) == 0 {
		return 0, ErrNoData
	}
	b := d.rx[0]
	d.rx = d.rx[1:]
	return b, nil
}

// Write records the bytes and answers complete "get" queries from
// replies, or from attrs for attributes assigned earlier.
func (d *fakeDisplay) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.written.Write(p)
	d.pending = append(d.pending, p...)
	for {
		pos := bytes.Index(d.pending, []byte(Terminator))
		if pos < 0 {
			break
		}
		d.handle(string(d.pending[:pos]))
		d.pending = d.pending[pos+len(Terminator):]
	}
	return len(p), nil
}

func (d *fakeDisplay) handle(cmd string) {
	if strings.HasPrefix(cmd, "get ") {
		ref := cmd[4:]
		if reply, ok := d.replies[ref]; ok {
			d.rx = append(d.rx, reply...)
		} else if val, ok := d.attrs[ref]; ok {
			d.rx = append(d.rx, textFrame(val)...)
		}
		return
	}
	if pos := strings.Index(cmd, "="); pos > 0 {
		val := cmd[pos+1:]
		if unquoted, err := strconv.Unquote(val); err == nil {
			val = unquoted
		}
		d.attrs[cmd[:pos]] = val
	}
}

func (d *fakeDisplay) inject(p ...byte) *fakeDisplay {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.rx = append(d.rx, p...)
	return d
}

func (d *fakeDisplay) injectAfter(delay time.Duration, p ...byte) *fakeDisplay {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.scheduled = append(d.scheduled, arrival{at: time.Now().Add(delay), data: p})
	return d
}

func (d *fakeDisplay) reply(ref string, frame []byte) *fakeDisplay {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.replies[ref] = frame
	return d
}

func (d *fakeDisplay) writtenBytes() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.written.Bytes()...)
}

func textFrame(s string) []byte {
	return append(append([]byte{TextMarker}, s...), Terminator...)
}

func numberFrame(b0, b1, b2, b3 byte) []byte {
	return []byte{NumberMarker, b0, b1, b2, b3, 0xff, 0xff, 0xff}
}

const testTimeout = 30 * time.Millisecond

func newTestNex(t *testing.T) (*Nex, *fakeDisplay) {
	d := newFakeDisplay()
	n := New(d)
	n.Timeout = testTimeout
	n.PollInterval = 50 * time.Microsecond
	return n, d
}

type routedEvent struct {
	group   byte
	payload []byte
}

type eventRecorder struct {
	events []routedEvent
}

func (r *eventRecorder) Route(group byte, remaining int, src io.ByteReader) {
	ev := routedEvent{group: group}
	for i := 0; i < remaining; i++ {
		b, err := src.ReadByte()
		if err != nil {
			break
		}
		ev.payload = append(ev.payload, b)
	}
	r.events = append(r.events, ev)
}
