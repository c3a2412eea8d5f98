// Package trigger routes the event frames of the default Nextion
// custom protocol: page changes and numbered trigger functions.
package trigger

import (
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/nextion.go/pkg/nextion"
)

// Command groups of the custom protocol.
const (
	// GroupPage is followed by the id of the page just loaded,
	// sent by "printh 23 02 50 XX" in the page preinitialize event.
	GroupPage byte = 'P'
	// GroupTrigger is followed by a trigger id 0x00-0xFF,
	// sent by "printh 23 02 54 XX".
	GroupTrigger byte = 'T'
)

// Mux is a nextion.Router dispatching by command group.
// Bytes of a frame left unread by a handler are discarded.
type Mux struct {
	// Default receives groups without a handler. If nil, such
	// frames are dropped.
	Default nextion.Router

	lock       sync.Mutex
	groups     map[byte]nextion.Router
	triggers   map[byte]func()
	anyTrigger func(id byte)
	onPage     func(page byte)
	page       int
	lastPage   int
}

// NewMux creates a Mux which handles GroupPage and GroupTrigger.
func NewMux() *Mux {
	m := &Mux{
		groups:   make(map[byte]nextion.Router),
		triggers: make(map[byte]func()),
		page:     -1,
		lastPage: -1,
	}
	m.groups[GroupPage] = nextion.RouteFunc(m.routePage)
	m.groups[GroupTrigger] = nextion.RouteFunc(m.routeTrigger)
	return m
}

// HandleGroup registers a Router for a command group, replacing the
// built-in handling if group is GroupPage or GroupTrigger.
func (m *Mux) HandleGroup(group byte, r nextion.Router) *Mux {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.groups[group] = r
	return m
}

// OnTrigger registers the function called for trigger id.
func (m *Mux) OnTrigger(id byte, fn func()) *Mux {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.triggers[id] = fn
	return m
}

// OnAnyTrigger registers a function called for triggers without a
// function of their own.
func (m *Mux) OnAnyTrigger(fn func(id byte)) *Mux {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.anyTrigger = fn
	return m
}

// OnPage registers a function called when a page change is reported.
func (m *Mux) OnPage(fn func(page byte)) *Mux {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.onPage = fn
	return m
}

// CurrentPage returns the last reported page, or -1 if none.
func (m *Mux) CurrentPage() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.page
}

// LastPage returns the page before the current one, or -1.
func (m *Mux) LastPage() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.lastPage
}

// Route implements nextion.Router.
func (m *Mux) Route(group byte, remaining int, src io.ByteReader) {
	m.lock.Lock()
	r := m.groups[group]
	if r == nil {
		r = m.Default
	}
	m.lock.Unlock()
	lr := &limitedReader{src: src, left: remaining}
	if r != nil {
		r.Route(group, remaining, lr)
	} else {
		glog.V(3).Infof("no handler for group %#02x", group)
	}
	nextion.Discard(lr, lr.left)
}

func (m *Mux) routePage(_ byte, remaining int, src io.ByteReader) {
	if remaining < 1 {
		return
	}
	page, err := src.ReadByte()
	if err != nil {
		return
	}
	m.lock.Lock()
	if int(page) != m.page {
		m.lastPage, m.page = m.page, int(page)
	}
	fn := m.onPage
	m.lock.Unlock()
	glog.V(2).Infof("page %d", page)
	if fn != nil {
		fn(page)
	}
}

func (m *Mux) routeTrigger(_ byte, remaining int, src io.ByteReader) {
	if remaining < 1 {
		return
	}
	id, err := src.ReadByte()
	if err != nil {
		return
	}
	m.lock.Lock()
	fn, anyFn := m.triggers[id], m.anyTrigger
	m.lock.Unlock()
	glog.V(2).Infof("trigger %#02x", id)
	switch {
	case fn != nil:
		fn()
	case anyFn != nil:
		anyFn(id)
	}
}

// limitedReader stops at the declared frame length.
type limitedReader struct {
	src  io.ByteReader
	left int
}

func (r *limitedReader) ReadByte() (byte, error) {
	if r.left <= 0 {
		return 0, io.EOF
	}
	b, err := r.src.ReadByte()
	if err == nil {
		r.left--
	}
	return b, err
}
