package nextion

import (
	"io"

	"github.com/golang/glog"
)

// EventMarker starts every event frame.
const EventMarker byte = '#'

// minEventFrame is '#', len and at least the group byte.
const minEventFrame = 3

// Router receives event frames found by Listen.
type Router interface {
	// Route is called with the command group of a frame. The remaining
	// declared bytes of the frame are already pending and the Router is
	// responsible for reading them from src.
	Route(group byte, remaining int, src io.ByteReader)
}

// RouteFunc is the func form of Router.
type RouteFunc func(group byte, remaining int, src io.ByteReader)

// Route implements Router.
func (f RouteFunc) Route(group byte, remaining int, src io.ByteReader) {
	f(group, remaining, src)
}

// Discard reads and drops count bytes from src.
func Discard(src io.ByteReader, count int) {
	for ; count > 0; count-- {
		if _, err := src.ReadByte(); err != nil {
			return
		}
	}
}

// Listen looks for one event frame and dispatches it to the Router.
// It must be called on every iteration of the caller's loop. It returns
// immediately if fewer than 3 bytes are pending, otherwise it blocks at
// most for a few bounded waits. It reports whether a frame was
// dispatched; incomplete or malformed frames are dropped silently.
func (n *Nex) Listen() bool {
	if n.Transport.Available() < minEventFrame {
		return false
	}
	if !n.seek(EventMarker) {
		glog.V(4).Info("listen: no event marker")
		return false
	}
	size, err := n.readWithin(n.deadline())
	if err != nil {
		glog.V(4).Info("listen: missing length")
		return false
	}
	if size == 0 {
		glog.V(4).Info("listen: empty event frame")
		return false
	}
	if !n.waitAvailable(int(size)) {
		glog.V(4).Infof("listen: incomplete frame, want %d bytes", size)
		return false
	}
	group, err := n.Transport.ReadByte()
	if err != nil {
		return false
	}
	if glog.V(3) {
		glog.Infof("EVENT group=%#02x len=%d", group, size)
	}
	if r := n.Router; r != nil {
		r.Route(group, int(size)-1, n)
	} else {
		Discard(n, int(size)-1)
	}
	return true
}
