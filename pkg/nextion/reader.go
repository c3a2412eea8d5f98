package nextion

import (
	"github.com/golang/glog"
)

// Reply markers.
const (
	TextMarker   byte = 0x70
	NumberMarker byte = 0x71
)

// Minimal reply sizes: marker + payload + terminator.
const (
	minTextFrame   = 1 + len(Terminator)
	minNumberFrame = 1 + 4 + len(Terminator)
)

const (
	phaseDrain      = "drain"
	phaseArrival    = "arrival"
	phaseMarker     = "marker"
	phasePayload    = "payload"
	phaseTerminator = "terminator"
)

// ReadStr reads a text attribute, e.g. "t0.txt".
// It returns ErrorText if the reply can't be decoded.
func (n *Nex) ReadStr(ref string) string {
	s, err := n.QueryText(ref)
	if err != nil {
		glog.V(2).Infof("ReadStr: %v", err)
		return ErrorText
	}
	return s
}

// ReadNumber reads a numeric attribute, e.g. "n0.val".
// It returns ErrorNumber if the reply can't be decoded.
func (n *Nex) ReadNumber(ref string) uint32 {
	v, err := n.QueryNumber(ref)
	if err != nil {
		glog.V(2).Infof("ReadNumber: %v", err)
		return ErrorNumber
	}
	return v
}

// QueryText is ReadStr reporting the failure reason.
func (n *Nex) QueryText(ref string) (string, error) {
	if err := n.request(ref, minTextFrame, TextMarker); err != nil {
		return "", err
	}
	dl := n.deadline()
	var buf []byte
	for {
		b, err := n.readWithin(dl)
		if err != nil {
			return "", &ReadError{Ref: ref, Phase: phaseTerminator, Err: ErrTimeout}
		}
		buf = append(buf, b)
		if l := len(buf); l >= len(Terminator) && string(buf[l-len(Terminator):]) == Terminator {
			return string(buf[:l-len(Terminator)]), nil
		}
	}
}

// QueryNumber is ReadNumber reporting the failure reason.
func (n *Nex) QueryNumber(ref string) (uint32, error) {
	if err := n.request(ref, minNumberFrame, NumberMarker); err != nil {
		return 0, err
	}
	var payload [4]byte
	dl := n.deadline()
	for i := range payload {
		b, err := n.readWithin(dl)
		if err != nil {
			return 0, &ReadError{Ref: ref, Phase: phasePayload, Err: ErrTimeout}
		}
		payload[i] = b
	}
	// Exactly three 0xFF in a row, no resync inside a frame.
	dl = n.deadline()
	for count := 0; count < len(Terminator); count++ {
		b, err := n.readWithin(dl)
		if err != nil {
			return 0, &ReadError{Ref: ref, Phase: phaseTerminator, Err: ErrTimeout}
		}
		if b != 0xff {
			return 0, &ReadError{Ref: ref, Phase: phaseTerminator, Err: ErrBadTerminator}
		}
	}
	return decodeNumber(payload), nil
}

// request runs the phases shared by both reads: drain pending events,
// send the query, wait for enough bytes and find the reply marker.
func (n *Nex) request(ref string, minFrame int, marker byte) error {
	if !n.drain() && n.DrainPolicy == DrainFailFast {
		return &ReadError{Ref: ref, Phase: phaseDrain, Err: ErrTimeout}
	}
	n.send(Query{Ref: ref})
	if !n.waitAvailable(minFrame) {
		return &ReadError{Ref: ref, Phase: phaseArrival, Err: ErrTimeout}
	}
	if !n.seek(marker) {
		return &ReadError{Ref: ref, Phase: phaseMarker, Err: ErrNoMarker}
	}
	return nil
}

// drain lets Listen consume queued event frames so they are not taken
// for the reply. It returns false if bytes were still pending when the
// timeout expired.
func (n *Nex) drain() bool {
	dl := n.deadline()
	for n.Transport.Available() > 0 {
		if dl.expired() {
			glog.V(4).Infof("drain timeout, %d bytes pending", n.Transport.Available())
			return false
		}
		if !n.Listen() {
			dl.pause()
		}
	}
	return true
}

// seek discards bytes until marker is read.
func (n *Nex) seek(marker byte) bool {
	dl := n.deadline()
	for {
		if n.Transport.Available() > 0 {
			b, err := n.Transport.ReadByte()
			if err == nil && b == marker {
				return true
			}
			if err == nil {
				glog.V(4).Infof("discard %#02x while seeking %#02x", b, marker)
			}
		} else {
			dl.pause()
		}
		if dl.expired() {
			return false
		}
	}
}

// decodeNumber assembles a little-endian uint32.
func decodeNumber(b [4]byte) uint32 {
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}
