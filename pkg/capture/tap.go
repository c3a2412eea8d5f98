package capture

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/nextion.go/pkg/nextion"
)

// Tap is a nextion.Transport recording the traffic of another one.
// Inbound bytes are collected and written as one record when the
// direction changes or on Flush.
type Tap struct {
	nextion.Transport
	Recorder *Recorder

	lock    sync.Mutex
	inbound []byte
}

// NewTap wraps t.
func NewTap(t nextion.Transport, rec *Recorder) *Tap {
	return &Tap{Transport: t, Recorder: rec}
}

// ReadByte implements nextion.Transport.
func (t *Tap) ReadByte() (byte, error) {
	b, err := t.Transport.ReadByte()
	if err == nil {
		t.lock.Lock()
		t.inbound = append(t.inbound, b)
		t.lock.Unlock()
	}
	return b, err
}

// Write implements nextion.Transport.
func (t *Tap) Write(p []byte) (int, error) {
	t.Flush()
	t.record(DirectionOut, append([]byte(nil), p...))
	return t.Transport.Write(p)
}

// Flush records pending inbound bytes.
func (t *Tap) Flush() {
	t.lock.Lock()
	data := t.inbound
	t.inbound = nil
	t.lock.Unlock()
	t.record(DirectionIn, data)
}

func (t *Tap) record(dir Direction, data []byte) {
	if err := t.Recorder.Record(dir, data); err != nil {
		glog.Warningf("capture %s error: %v", dir, err)
	}
}
