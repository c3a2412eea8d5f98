package trigger

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/nextion.go/pkg/nextion"
)

// frames feeds a Nex from a fixed byte slice.
type frames struct {
	bytes.Buffer
}

func (f *frames) Available() int { return f.Len() }

func (f *frames) ReadByte() (byte, error) {
	if f.Len() == 0 {
		return 0, nextion.ErrNoData
	}
	return f.Buffer.ReadByte()
}

func listenAll(t *testing.T, m *Mux, in ...byte) *frames {
	var f frames
	f.Write(in)
	n := nextion.New(&f).WithRouter(m)
	n.Timeout = 10 * time.Millisecond
	for n.Listen() {
	}
	return &f
}

func TestPage(t *testing.T) {
	m := NewMux()
	require.Equal(t, -1, m.CurrentPage())
	var pages []byte
	m.OnPage(func(page byte) { pages = append(pages, page) })
	listenAll(t, m, '#', 2, 'P', 0, '#', 2, 'P', 3)
	require.Equal(t, []byte{0, 3}, pages)
	require.Equal(t, 3, m.CurrentPage())
	require.Equal(t, 0, m.LastPage())
}

func TestTrigger(t *testing.T) {
	m := NewMux()
	var fired []string
	m.OnTrigger(0x00, func() { fired = append(fired, "trigger0") })
	m.OnTrigger(0x0a, func() { fired = append(fired, "trigger10") })
	m.OnAnyTrigger(func(id byte) { fired = append(fired, "any") })
	listenAll(t, m, '#', 2, 'T', 0x0a, '#', 2, 'T', 0x00, '#', 2, 'T', 0x7f)
	require.Equal(t, []string{"trigger10", "trigger0", "any"}, fired)
}

func TestUnreadBytesDiscarded(t *testing.T) {
	m := NewMux()
	var ids []byte
	m.OnAnyTrigger(func(id byte) { ids = append(ids, id) })
	// trigger frame with extra bytes, then an unknown group.
	f := listenAll(t, m, '#', 4, 'T', 1, 0xaa, 0xbb, '#', 3, 'Q', 1, 2, '#', 2, 'T', 2)
	require.Equal(t, []byte{1, 2}, ids)
	require.Zero(t, f.Available())
}

func TestHandleGroup(t *testing.T) {
	m := NewMux()
	var payload []byte
	m.HandleGroup('C', nextion.RouteFunc(func(group byte, remaining int, src io.ByteReader) {
		b, err := src.ReadByte()
		require.NoError(t, err)
		payload = append(payload, b)
	}))
	var defaults []byte
	m.Default = nextion.RouteFunc(func(group byte, remaining int, src io.ByteReader) {
		defaults = append(defaults, group)
		for {
			if _, err := src.ReadByte(); err != nil {
				require.Equal(t, io.EOF, err)
				break
			}
		}
	})
	f := listenAll(t, m, '#', 3, 'C', 9, 8, '#', 3, 'Z', 1, 1)
	require.Equal(t, []byte{9}, payload)
	require.Equal(t, []byte{'Z'}, defaults)
	require.Zero(t, f.Available())
}
