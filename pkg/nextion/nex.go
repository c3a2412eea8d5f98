package nextion

import (
	"io"
	"time"

	"github.com/golang/glog"
)

// DrainPolicy decides what a read does when pending bytes can't be
// drained before the query.
type DrainPolicy int

const (
	// DrainProceed sends the query anyway. Decoding then usually fails
	// on its own timeouts.
	DrainProceed DrainPolicy = iota
	// DrainFailFast fails the read without sending the query.
	DrainFailFast
)

// Nex talks to one display over a Transport.
type Nex struct {
	Transport    Transport
	Router       Router
	Timeout      time.Duration
	PollInterval time.Duration
	DrainPolicy  DrainPolicy
}

// New creates a Nex over t with default timings.
func New(t Transport) *Nex {
	return &Nex{
		Transport:    t,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// WithRouter sets the Router receiving event frames.
func (n *Nex) WithRouter(r Router) *Nex {
	n.Router = r
	return n
}

func (n *Nex) timeout() time.Duration {
	if n.Timeout > 0 {
		return n.Timeout
	}
	return DefaultTimeout
}

func (n *Nex) pollInterval() time.Duration {
	if n.PollInterval > 0 {
		return n.PollInterval
	}
	return DefaultPollInterval
}

// ReadByte reads one raw byte, mainly for custom routers.
// It returns ErrNoData when nothing is pending.
func (n *Nex) ReadByte() (byte, error) {
	return n.Transport.ReadByte()
}

// Flush discards pending bytes for at most the engine timeout and
// returns the number of bytes discarded.
func (n *Nex) Flush() int {
	var count int
	dl := n.deadline()
	for n.Transport.Available() > 0 && !dl.expired() {
		if _, err := n.Transport.ReadByte(); err != nil {
			break
		}
		count++
	}
	if count > 0 {
		glog.V(3).Infof("flushed %d bytes", count)
	}
	return count
}

// DefaultSettleTime is how long FlushAfter lets a freshly opened link
// deliver what the display sent before.
const DefaultSettleTime = 100 * time.Millisecond

// FlushAfter waits for settle and then flushes. The read loop of the
// transport must already be running.
func (n *Nex) FlushAfter(settle time.Duration) int {
	time.Sleep(settle)
	return n.Flush()
}

func (n *Nex) send(cmd Command) {
	if _, err := cmd.WriteTo(n.Transport); err != nil {
		glog.Warningf("write %q error: %v", cmd.Bytes(), err)
		return
	}
	if glog.V(3) {
		glog.Infof("SEND % x", cmd.Bytes())
	}
}

// readWithin reads one byte, waiting for it until dl expires.
func (n *Nex) readWithin(dl deadline) (byte, error) {
	if !dl.until(func() bool { return n.Transport.Available() > 0 }) {
		return 0, ErrTimeout
	}
	return n.Transport.ReadByte()
}

var _ io.ByteReader = (*Nex)(nil)
